// Package command parses chat-style playtest commands such as "add @U123" or
// "generate 6" into typed values the HTTP layer can execute.
package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/playtestbot/roster/internal/domain"
)

// Verb names a command.
type Verb string

const (
	VerbAdd        Verb = "add"
	VerbRemove     Verb = "remove"
	VerbWhitelist  Verb = "whitelist"
	VerbBlacklist  Verb = "blacklist"
	VerbReset      Verb = "reset"
	VerbRegister   Verb = "register"
	VerbUnregister Verb = "unregister"
	VerbPromote    Verb = "promote"
	VerbDemote     Verb = "demote"
	VerbStatus     Verb = "status"
	VerbPreview    Verb = "preview"
	VerbGenerate   Verb = "generate"
	VerbHelp       Verb = "help"
)

type argShape int

const (
	argNone           argShape = iota
	argOptionalTarget          // [@user]
	argTarget                  // @user
	argTargetName              // @user [name...]
	argOptionalSize            // [size]
)

type verbSpec struct {
	shape argShape
	usage string
	about string
}

var verbs = map[Verb]verbSpec{
	VerbAdd:        {argOptionalTarget, "add [@user]", "put yourself (or @user) on today's roster"},
	VerbRemove:     {argOptionalTarget, "remove [@user]", "sit out today's roster"},
	VerbWhitelist:  {argOptionalTarget, "whitelist [@user]", "mark as always available"},
	VerbBlacklist:  {argOptionalTarget, "blacklist [@user]", "exclude from every draw until reset"},
	VerbReset:      {argOptionalTarget, "reset [@user]", "clear both overrides"},
	VerbRegister:   {argTargetName, "register @user [name]", "add a playtester (admin)"},
	VerbUnregister: {argTarget, "unregister @user", "remove a playtester (admin)"},
	VerbPromote:    {argTarget, "promote @user", "grant admin rights (admin)"},
	VerbDemote:     {argTarget, "demote @user", "revoke admin rights (admin)"},
	VerbStatus:     {argOptionalTarget, "status [@user]", "show current state"},
	VerbPreview:    {argOptionalSize, "preview [size]", "draw a roster without recording it"},
	VerbGenerate:   {argOptionalSize, "generate [size]", "draw and record a roster (admin)"},
	VerbHelp:       {argNone, "help", "show this message"},
}

// helpOrder fixes the order verbs are listed in Help.
var helpOrder = []Verb{
	VerbAdd, VerbRemove, VerbWhitelist, VerbBlacklist, VerbReset, VerbStatus,
	VerbPreview, VerbGenerate, VerbRegister, VerbUnregister, VerbPromote, VerbDemote, VerbHelp,
}

// Command is a parsed request. An empty Target means the caller.
type Command struct {
	Verb   Verb   `json:"verb"`
	Target string `json:"target,omitempty"`
	Name   string `json:"name,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// TargetOr returns the command target, or callerID when none was given.
func (c Command) TargetOr(callerID string) string {
	if c.Target == "" {
		return callerID
	}
	return c.Target
}

// StateChange returns the override layer and value a state verb writes.
func (c Command) StateChange() (domain.StateKind, int, bool) {
	switch c.Verb {
	case VerbAdd:
		return domain.KindTemp, 1, true
	case VerbRemove:
		return domain.KindTemp, 0, true
	case VerbWhitelist:
		return domain.KindPerm, 1, true
	case VerbBlacklist:
		return domain.KindPerm, 0, true
	}
	return "", 0, false
}

// IsVerb reports whether s names a known command.
func IsVerb(s string) bool {
	_, ok := verbs[normalizeVerb(s)]
	return ok
}

// Split separates the leading verb token from the rest of text.
func Split(text string) (verb, rest string) {
	text = strings.TrimSpace(text)
	if i := strings.IndexFunc(text, isSpace); i >= 0 {
		return text[:i], strings.TrimSpace(text[i:])
	}
	return text, ""
}

// FromRequest parses a slash-command style request. When cmd is itself a verb
// ("/add"), text holds the arguments; otherwise the verb is the first word of text.
// An empty request is a help request.
func FromRequest(cmd, text string) (Command, error) {
	if IsVerb(cmd) {
		return Parse(cmd, text)
	}
	verb, rest := Split(text)
	if verb == "" {
		return Command{Verb: VerbHelp}, nil
	}
	return Parse(verb, rest)
}

// Parse builds a Command from a verb and its argument text.
func Parse(verb, text string) (Command, error) {
	v := normalizeVerb(verb)
	def, ok := verbs[v]
	if !ok {
		return Command{}, domain.ErrValidation(fmt.Sprintf("unknown command %q, try help", strings.TrimSpace(verb)))
	}

	args := fields(text)
	cmd := Command{Verb: v}

	switch def.shape {
	case argNone:
		if len(args) > 0 {
			return Command{}, usageError(def)
		}

	case argOptionalTarget, argTarget:
		if len(args) > 1 || (def.shape == argTarget && len(args) == 0) {
			return Command{}, usageError(def)
		}
		if len(args) == 1 {
			ref, err := domain.ParseTarget(args[0])
			if err != nil {
				return Command{}, err
			}
			cmd.Target = ref.ID
		}

	case argTargetName:
		if len(args) == 0 {
			return Command{}, usageError(def)
		}
		ref, err := domain.ParseTarget(args[0])
		if err != nil {
			return Command{}, err
		}
		cmd.Target = ref.ID
		cmd.Name = strings.Join(args[1:], " ")
		if cmd.Name == "" {
			cmd.Name = ref.Name
		}

	case argOptionalSize:
		if len(args) > 1 {
			return Command{}, usageError(def)
		}
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return Command{}, domain.ErrValidation(fmt.Sprintf("roster size must be a number, got %q", args[0]))
			}
			if n <= 0 {
				return Command{}, domain.ErrValidation(fmt.Sprintf("roster size must be positive, got %d", n))
			}
			cmd.Size = n
		}
	}
	return cmd, nil
}

// Help lists every command.
func Help() string {
	var b strings.Builder
	b.WriteString("Playtest commands:\n")
	for _, v := range helpOrder {
		def := verbs[v]
		fmt.Fprintf(&b, "  %-22s %s\n", def.usage, def.about)
	}
	return b.String()
}

func usageError(def verbSpec) error {
	return domain.ErrValidation("usage: " + def.usage)
}

func normalizeVerb(s string) Verb {
	return Verb(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "/")))
}

// fields splits text on whitespace, keeping <...> mentions whole.
func fields(text string) []string {
	var out []string
	var cur strings.Builder
	inMention := false
	for _, r := range text {
		switch {
		case r == '<' && cur.Len() == 0:
			inMention = true
		case r == '>':
			inMention = false
		case isSpace(r) && !inMention:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
