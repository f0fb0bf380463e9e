package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseByteRange(t *testing.T) {
	end := func(v uint64) *uint64 { return &v }

	tests := []struct {
		name      string
		input     string
		wantStart uint64
		wantEnd   *uint64
		wantErr   bool
	}{
		{
			name:      "bounded range",
			input:     "0-1023",
			wantStart: 0,
			wantEnd:   end(1023),
		},
		{
			name:      "open-ended range",
			input:     "4096-",
			wantStart: 4096,
			wantEnd:   nil,
		},
		{
			name:    "missing separator",
			input:   "1024",
			wantErr: true,
		},
		{
			name:    "start equal to end",
			input:   "100-100",
			wantErr: true,
		},
		{
			name:    "start above end",
			input:   "200-100",
			wantErr: true,
		},
		{
			name:    "non-numeric start",
			input:   "abc-100",
			wantErr: true,
		},
		{
			name:    "non-numeric end",
			input:   "0-xyz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, endPtr, err := parseByteRange(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			if tt.wantEnd == nil {
				assert.Nil(t, endPtr)
			} else {
				require.NotNil(t, endPtr)
				assert.Equal(t, *tt.wantEnd, *endPtr)
			}
		})
	}
}
