package quiz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		count   int
		tone    Tone
		wantErr bool
	}{
		{"valid", "Photosynthesis converts light into chemical energy.", 5, ToneNeutral, false},
		{"tone case-insensitive", "text", 1, Tone("Professional"), false},
		{"empty source", "", 5, ToneSimple, true},
		{"whitespace source", " \n\t ", 5, ToneSimple, true},
		{"zero count", "text", 0, ToneSimple, true},
		{"negative count", "text", -3, ToneSimple, true},
		{"unknown tone", "text", 3, Tone("sarcastic"), true},
		{"empty tone", "text", 3, Tone(""), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest(tt.source, tt.count, tt.tone)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidRequest), "expected ErrInvalidRequest, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.source, req.SourceText())
			assert.Equal(t, tt.count, req.QuestionCount())
			assert.True(t, req.valid())
		})
	}
}

func TestNewRequest_NormalizesTone(t *testing.T) {
	req, err := NewRequest("text", 2, Tone(" SIMPLE "))
	require.NoError(t, err)
	assert.Equal(t, ToneSimple, req.Tone())
}

func TestZeroRequestIsInvalid(t *testing.T) {
	assert.False(t, QuizRequest{}.valid())
}

func TestLetterValid(t *testing.T) {
	for _, l := range Letters {
		assert.True(t, l.Valid(), "letter %q", l)
	}
	for _, l := range []Letter{"", "e", "A", "ab", "1"} {
		assert.False(t, l.Valid(), "letter %q", l)
	}
}

func TestDiagnosticsPartial(t *testing.T) {
	assert.True(t, Diagnostics{Requested: 5, Produced: 3}.Partial())
	assert.False(t, Diagnostics{Requested: 3, Produced: 3}.Partial())
}
