// Package linker clusters raw interactions into cases. One case is one
// agent's interactions on one calendar day; the grouping is deliberately
// coarse because phone and email records cannot yet be correlated by
// booking reference.
package linker

import (
	"sort"

	"github.com/ryoyaiwata8-sudo/mail-review/models"
)

// Link partitions interactions into cases keyed by (agent, calendar
// day). The input may arrive in any order and any channel mixture; a
// case can mix calls and emails from the same agent on the same day.
// Within a case, interactions are sorted by timestamp ascending, and the
// returned cases are ordered by case ID, so re-running on the same input
// set yields identical output regardless of input ordering.
func Link(interactions []*models.Interaction) []*models.Case {
	type dayKey struct {
		agent string
		day   string
	}

	groups := make(map[dayKey][]*models.Interaction)
	for _, i := range interactions {
		k := dayKey{agent: i.Agent, day: i.Timestamp.Format("20060102")}
		groups[k] = append(groups[k], i)
	}

	cases := make([]*models.Case, 0, len(groups))
	for k, members := range groups {
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].Timestamp.Before(members[b].Timestamp)
		})

		c := models.NewCase("CASE_" + k.agent + "_" + k.day)
		for _, i := range members {
			c.AddInteraction(i)
		}
		cases = append(cases, c)
	}

	sort.Slice(cases, func(a, b int) bool {
		return cases[a].CaseID < cases[b].CaseID
	})
	return cases
}
