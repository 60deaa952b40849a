package store

import (
	"context"
	"fmt"
	"time"
)

// quizRunRow mirrors a quiz_run_events row.
type quizRunRow struct {
	ID           int    `db:"id"`
	Sequence     int64  `db:"sequence"`
	Timestamp    int64  `db:"timestamp"`
	RunID        string `db:"run_id"`
	Model        string `db:"model"`
	Tone         string `db:"tone"`
	Requested    int    `db:"requested"`
	Produced     int    `db:"produced"`
	Blocks       int    `db:"blocks"`
	Malformed    int    `db:"malformed"`
	Rejected     int    `db:"rejected"`
	Attempts     int    `db:"attempts"`
	SourceChars  int    `db:"source_chars"`
	LatencyMs    int64  `db:"latency_ms"`
	Outcome      string `db:"outcome"`
	ErrorMessage string `db:"error_message"`
}

func (r *eventRepo) AppendQuizRun(ctx context.Context, data QuizRunEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	row := quizRunRow{
		Sequence:     seqNum,
		Timestamp:    time.Now().UTC().UnixMilli(),
		RunID:        data.RunID,
		Model:        data.Model,
		Tone:         data.Tone,
		Requested:    data.Requested,
		Produced:     data.Produced,
		Blocks:       data.Blocks,
		Malformed:    data.Malformed,
		Rejected:     data.Rejected,
		Attempts:     data.Attempts,
		SourceChars:  data.SourceChars,
		LatencyMs:    data.LatencyMs,
		Outcome:      data.Outcome,
		ErrorMessage: data.ErrorMessage,
	}

	_, err = r.db.NamedExecContext(ctx, `INSERT INTO quiz_run_events (
		sequence, timestamp, run_id, model, tone, requested, produced, blocks,
		malformed, rejected, attempts, source_chars, latency_ms, outcome, error_message
	) VALUES (
		:sequence, :timestamp, :run_id, :model, :tone, :requested, :produced, :blocks,
		:malformed, :rejected, :attempts, :source_chars, :latency_ms, :outcome, :error_message
	)`, row)
	if err != nil {
		return fmt.Errorf("save quiz run event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryQuizRuns(ctx context.Context, opts QueryOpts) ([]QuizRunEvent, error) {
	query, args := buildEventQuery("SELECT * FROM quiz_run_events", opts)

	var rows []quizRunRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query quiz runs: %w", err)
	}

	out := make([]QuizRunEvent, len(rows))
	for i, row := range rows {
		out[i] = QuizRunEvent{
			ID:        row.ID,
			Sequence:  row.Sequence,
			Timestamp: time.UnixMilli(row.Timestamp).UTC(),
			QuizRunEventData: QuizRunEventData{
				RunID:        row.RunID,
				Model:        row.Model,
				Tone:         row.Tone,
				Requested:    row.Requested,
				Produced:     row.Produced,
				Blocks:       row.Blocks,
				Malformed:    row.Malformed,
				Rejected:     row.Rejected,
				Attempts:     row.Attempts,
				SourceChars:  row.SourceChars,
				LatencyMs:    row.LatencyMs,
				Outcome:      row.Outcome,
				ErrorMessage: row.ErrorMessage,
			},
		}
	}
	return out, nil
}
