package main

import (
	"flag"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/studyhall/chat"
)

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"INFO", false},
		{"verbose", true},
		{"", true},
	}

	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			set := flag.NewFlagSet("test", flag.ContinueOnError)
			set.String("log-level", tt.level, "")
			c := cli.NewContext(cli.NewApp(), set, nil)

			err := setupLogger(c)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDescribeFailure(t *testing.T) {
	assert.Equal(t,
		"Error: you do not have access to this course.",
		describeFailure(chat.Failure(chat.ErrorKindUnauthorized, nil)))

	assert.Equal(t,
		"Error: there is no previous response to continue.",
		describeFailure(chat.Failure(chat.ErrorKindNoPreviousResponse, nil)))

	assert.Equal(t,
		"Error: no relevant course material was found for this question.",
		describeFailure(chat.Failure(chat.ErrorKindNoRelevantContent, nil)))

	assert.Equal(t,
		"Error: the request failed.",
		describeFailure(chat.Failure(chat.ErrorKindProvider, nil)))

	assert.Contains(t,
		describeFailure(chat.Failure(chat.ErrorKindProvider, assert.AnError)),
		assert.AnError.Error())
}

func TestIdentityFlagsRequired(t *testing.T) {
	for _, f := range identityFlags() {
		sf, ok := f.(*cli.StringFlag)
		require.True(t, ok)
		assert.True(t, sf.Required, "%s should be required", sf.Name)
	}
}
