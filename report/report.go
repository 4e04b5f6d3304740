// Package report renders run results for the terminal and offers an
// optional post-pass that trims chained members out of loose groups.
package report

import (
	"fmt"
	"io"

	"imagedupes/fingerprint"
	"imagedupes/scanner"
	"imagedupes/types"
)

// Options controls report formatting
type Options struct {
	MinGroupSize int  // hide groups smaller than this (default 2)
	ShowSkipped  bool // list every skipped file with its reason
}

// Write renders the report. Singleton groups are suppressed by default:
// an image with no duplicates is not worth a line. The skipped-image
// count is always shown, separate from the groups.
func Write(w io.Writer, rep *scanner.Report, opts Options) {
	if opts.MinGroupSize < 1 {
		opts.MinGroupSize = 2
	}

	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
	if len(rep.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	shown := 0
	for _, group := range rep.Groups {
		if len(group.Members) < opts.MinGroupSize {
			continue
		}
		shown++

		fmt.Fprintf(w, "Group %d (%d images):\n", shown, len(group.Members))
		for _, member := range group.Members {
			fmt.Fprintf(w, "  %s\n", member)
		}
		for _, edge := range group.Edges {
			fmt.Fprintf(w, "    distance %d: %s <-> %s\n", edge.Distance, edge.A, edge.B)
		}
		fmt.Fprintln(w)
	}

	if shown == 0 {
		fmt.Fprintln(w, "No duplicate groups found.")
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Scanned %d files: %d fingerprinted (%d from cache), %d skipped, %d duplicate groups.\n",
		rep.Stats.TotalFiles, rep.Stats.Fingerprinted, rep.Stats.CacheHits, len(rep.Skipped), shown)

	if len(rep.Skipped) > 0 {
		if opts.ShowSkipped {
			fmt.Fprintln(w, "\nSkipped files:")
			for _, skip := range rep.Skipped {
				fmt.Fprintf(w, "  %s: %s\n", skip.Path, skip.Reason)
			}
		} else {
			fmt.Fprintln(w, "Run with --show-skipped (or check the log file) for skip reasons.")
		}
	}
}

// Refine drops members that sit too far from the rest of their group.
// Connected-component grouping only ever records the within-threshold
// edges that linked a group together, so the distances that reveal a
// chained outlier (a member vs the non-adjacent rest of its group) must
// be measured here, from the fingerprints. A member is dropped, into a
// singleton group of its own, when its distance exceeds the threshold
// against more than half of its fellow members. Pairs are left alone.
func Refine(groups []types.DuplicateGroup, records []*types.ImageRecord, threshold int) []types.DuplicateGroup {
	fps := make(map[string]fingerprint.Fingerprint, len(records))
	for _, rec := range records {
		fps[rec.ID] = rec.Fingerprint
	}

	refined := make([]types.DuplicateGroup, 0, len(groups))
	for _, group := range groups {
		if len(group.Members) < 3 {
			refined = append(refined, group)
			continue
		}

		over := make(map[string]int)
		total := make(map[string]int)
		for i, a := range group.Members {
			for _, b := range group.Members[i+1:] {
				dist, err := fingerprint.Distance(fps[a], fps[b])
				if err != nil {
					continue
				}
				total[a]++
				total[b]++
				if dist > threshold {
					over[a]++
					over[b]++
				}
			}
		}

		keep := types.DuplicateGroup{}
		var dropped []string
		for _, member := range group.Members {
			if total[member] > 0 && over[member]*2 > total[member] {
				dropped = append(dropped, member)
				continue
			}
			keep.Members = append(keep.Members, member)
		}
		for _, edge := range group.Edges {
			if contains(keep.Members, edge.A) && contains(keep.Members, edge.B) {
				keep.Edges = append(keep.Edges, edge)
			}
		}
		refined = append(refined, keep)
		for _, member := range dropped {
			refined = append(refined, types.DuplicateGroup{Members: []string{member}})
		}
	}
	return refined
}

func contains(members []string, id string) bool {
	for _, m := range members {
		if m == id {
			return true
		}
	}
	return false
}
