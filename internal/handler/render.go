package handler

import (
	"fmt"
	"strings"

	"github.com/playtestbot/roster/internal/command"
	"github.com/playtestbot/roster/internal/domain"
	"github.com/playtestbot/roster/internal/service"
)

func mention(id string) string {
	return "<@" + id + ">"
}

func mentions(ps []domain.Playtester) string {
	if len(ps) == 0 {
		return "nobody"
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = mention(p.ID)
	}
	return strings.Join(out, ", ")
}

func renderStateChange(verb command.Verb, callerID string, p *domain.Playtester) string {
	who := mention(p.ID)
	if p.ID == callerID {
		who = "You"
	}
	switch verb {
	case command.VerbAdd:
		return who + " will be on today's playtest roster."
	case command.VerbRemove:
		return who + " will sit out today's playtest."
	case command.VerbWhitelist:
		return who + " is now whitelisted."
	case command.VerbBlacklist:
		return who + " is now blacklisted and will not be drawn until reset."
	case command.VerbReset:
		return who + " is back in the regular lottery."
	case command.VerbPromote:
		return mention(p.ID) + " is now a playtest admin."
	case command.VerbDemote:
		return mention(p.ID) + " is no longer a playtest admin."
	case command.VerbRegister:
		return fmt.Sprintf("Registered %s as %q.", mention(p.ID), p.Name)
	}
	return "Done."
}

func renderStatus(st *service.PlaytesterStatus) string {
	p := st.Playtester
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", mention(p.ID), p.Name)
	fmt.Fprintf(&b, "  today:     %s\n", st.Category)
	fmt.Fprintf(&b, "  permanent: %s\n", p.PermState)
	fmt.Fprintf(&b, "  temporary: %s", st.EffectiveTemp)
	if st.EffectiveTemp != p.TempState {
		fmt.Fprintf(&b, " (expired %s)", p.TempState)
	}
	b.WriteString("\n")
	if p.IsAdmin {
		b.WriteString("  admin\n")
	}
	return b.String()
}

func renderRoster(res *service.RosterResult, recorded bool) string {
	var b strings.Builder
	title := "Roster preview"
	if recorded {
		title = "Playtest roster"
	}
	fmt.Fprintf(&b, "%s (%d of %d seats):\n", title, len(res.Members), res.Requested)

	added := make(map[string]bool, len(res.Added))
	for _, p := range res.Added {
		added[p.ID] = true
	}
	for i, p := range res.Members {
		note := fmt.Sprintf("%d entries", res.Entries[p.ID])
		if added[p.ID] {
			note = "added"
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, mention(p.ID), note)
	}
	if res.Shortfall > 0 {
		fmt.Fprintf(&b, "Not enough eligible playtesters: %d seat(s) left empty.\n", res.Shortfall)
	}
	fmt.Fprintf(&b, "Sitting out: %s\n", mentions(res.Removed))
	fmt.Fprintf(&b, "Blacklisted: %s\n", mentions(res.Blacklist))
	fmt.Fprintf(&b, "Whitelisted: %s\n", mentions(res.Whitelist))
	return b.String()
}
