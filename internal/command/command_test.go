package command

import (
	"testing"

	"github.com/playtestbot/roster/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		verb string
		text string
		want Command
	}{
		{"add", "", Command{Verb: VerbAdd}},
		{"/add", "<@U024BE7LH>", Command{Verb: VerbAdd, Target: "U024BE7LH"}},
		{"REMOVE", "@U1", Command{Verb: VerbRemove, Target: "U1"}},
		{"whitelist", "U1", Command{Verb: VerbWhitelist, Target: "U1"}},
		{"blacklist", " <@U1|bob> ", Command{Verb: VerbBlacklist, Target: "U1"}},
		{"reset", "", Command{Verb: VerbReset}},
		{"register", "<@U2> Alice Smith", Command{Verb: VerbRegister, Target: "U2", Name: "Alice Smith"}},
		{"register", "<@U2|alice smith>", Command{Verb: VerbRegister, Target: "U2", Name: "alice smith"}},
		{"register", "@U2", Command{Verb: VerbRegister, Target: "U2"}},
		{"unregister", "@U2", Command{Verb: VerbUnregister, Target: "U2"}},
		{"promote", "U3", Command{Verb: VerbPromote, Target: "U3"}},
		{"demote", "U3", Command{Verb: VerbDemote, Target: "U3"}},
		{"status", "", Command{Verb: VerbStatus}},
		{"preview", "", Command{Verb: VerbPreview}},
		{"generate", "6", Command{Verb: VerbGenerate, Size: 6}},
		{"help", "", Command{Verb: VerbHelp}},
	}
	for _, tt := range tests {
		t.Run(tt.verb+" "+tt.text, func(t *testing.T) {
			got, err := Parse(tt.verb, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		verb string
		text string
		code string
	}{
		{"dance", "", domain.CodeValidation},
		{"add", "@U1 @U2", domain.CodeValidation},
		{"add", "<@>", domain.CodeInvalidTarget},
		{"add", "not!an!id", domain.CodeInvalidTarget},
		{"unregister", "", domain.CodeValidation},
		{"promote", "", domain.CodeValidation},
		{"register", "", domain.CodeValidation},
		{"register", "#channel name", domain.CodeInvalidTarget},
		{"generate", "many", domain.CodeValidation},
		{"generate", "0", domain.CodeValidation},
		{"preview", "-3", domain.CodeValidation},
		{"preview", "3 4", domain.CodeValidation},
		{"help", "me", domain.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.verb+" "+tt.text, func(t *testing.T) {
			_, err := Parse(tt.verb, tt.text)
			require.Error(t, err)
			assert.True(t, domain.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestFromRequest(t *testing.T) {
	t.Run("verb in command field", func(t *testing.T) {
		got, err := FromRequest("/add", "@U1")
		require.NoError(t, err)
		assert.Equal(t, Command{Verb: VerbAdd, Target: "U1"}, got)
	})

	t.Run("verb in text", func(t *testing.T) {
		got, err := FromRequest("/playtest", "generate 4")
		require.NoError(t, err)
		assert.Equal(t, Command{Verb: VerbGenerate, Size: 4}, got)
	})

	t.Run("empty is help", func(t *testing.T) {
		got, err := FromRequest("/playtest", "  ")
		require.NoError(t, err)
		assert.Equal(t, VerbHelp, got.Verb)
	})

	t.Run("unknown verb", func(t *testing.T) {
		_, err := FromRequest("", "juggle")
		assert.True(t, domain.IsCode(err, domain.CodeValidation))
	})
}

func TestCommandHelpers(t *testing.T) {
	assert.Equal(t, "U1", Command{Verb: VerbAdd}.TargetOr("U1"))
	assert.Equal(t, "U2", Command{Verb: VerbAdd, Target: "U2"}.TargetOr("U1"))

	kind, value, ok := Command{Verb: VerbBlacklist}.StateChange()
	assert.True(t, ok)
	assert.Equal(t, domain.KindPerm, kind)
	assert.Equal(t, 0, value)

	_, _, ok = Command{Verb: VerbStatus}.StateChange()
	assert.False(t, ok)
}

func TestHelp(t *testing.T) {
	help := Help()
	for v := range verbs {
		assert.Contains(t, help, string(v))
	}
}

func TestSplit(t *testing.T) {
	verb, rest := Split("  register <@U1|a b>  Alice ")
	assert.Equal(t, "register", verb)
	assert.Equal(t, "<@U1|a b>  Alice", rest)
}
