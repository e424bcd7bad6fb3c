package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/votermatch/internal/match"
	"github.com/votermatch/internal/voterfile"
)

func (a *app) matchCmd() *cobra.Command {
	var (
		state   string
		asJSON  bool
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "match [people.csv]",
		Short: "Match a contact list against the voter file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			people, rowErrs, err := voterfile.ReadPeopleFile(args[0])
			if err != nil {
				return err
			}

			engine, release, err := a.buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			batch, matchErr := engine.Match(cmd.Context(), people, state)
			if batch == nil {
				return matchErr
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(batch.Results); err != nil {
					return err
				}
			} else {
				printBatch(batch, len(rowErrs))
				if explain {
					for _, r := range batch.Results {
						printCandidates(engine, r)
					}
				}
			}
			if matchErr != nil {
				return fmt.Errorf("batch incomplete: %w", matchErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "two-letter state code of the voter file (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "show each candidate's score breakdown")
	_ = cmd.MarkFlagRequired("state")
	return cmd
}

func (a *app) resultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result [person-id]",
		Short: "Show the stored result of one person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			r, err := engine.Result(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(r)
			printCandidates(engine, r)
			return nil
		},
	}
}

func (a *app) confirmCmd() *cobra.Command {
	var pick int

	cmd := &cobra.Command{
		Use:   "confirm [person-id]",
		Short: "Confirm one of the suggested candidates",
		Long:  `Records the candidate at --candidate (1 is the best) as the user's choice. It holds across re-matching until the person's details change.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			current, err := engine.Result(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if pick < 1 || pick > len(current.Candidates) {
				return fmt.Errorf("%w: %s has %d candidates, cannot pick %d",
					match.ErrInvalidEntry, args[0], len(current.Candidates), pick)
			}

			r, err := engine.ConfirmMatch(cmd.Context(), args[0], current.Candidates[pick-1].Record)
			if err != nil {
				return err
			}
			printResult(r)
			return nil
		},
	}

	cmd.Flags().IntVar(&pick, "candidate", 1, "1-based position of the candidate to confirm")
	return cmd
}

func (a *app) rejectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject [person-id]",
		Short: "Mark that none of the suggestions is this person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			r, err := engine.RejectMatch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printResult(r)
			return nil
		},
	}
}

func (a *app) forgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget [person-id]",
		Short: "Delete the stored result of a removed person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, release, err := a.buildEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			err = engine.Forget(cmd.Context(), args[0])
			if errors.Is(err, match.ErrResultNotFound) {
				fmt.Printf("No result stored for %s\n", args[0])
				return nil
			}
			return err
		},
	}
}

func printBatch(batch *match.Batch, skippedRows int) {
	rows := make([][]string, 0, len(batch.Results))
	for _, r := range batch.Results {
		rows = append(rows, resultRow(r))
	}
	fmt.Println(renderTable(resultHeaders, rows, 3, 4))

	for _, e := range batch.Errors {
		fmt.Printf("Skipped entry %d (%s): %v\n", e.Index+1, e.PersonEntryID, e.Err)
	}

	stats := batch.Stats()
	fmt.Printf("\nTotal: %d  Confirmed: %d  Ambiguous: %d (low confidence %d)  Unmatched: %d  Errors: %d  CSV rows skipped: %d\n",
		stats.Total, stats.Confirmed, stats.Ambiguous, stats.LowConfidence, stats.Unmatched, stats.Errors, skippedRows)
	if batch.Degraded {
		fmt.Println("Warning: fuzzy retrieval unavailable, only exact and phonetic candidates were considered")
	}
}

var resultHeaders = []string{"Person", "Status", "Best match", "Top score", "Vote score", "Segment"}

func resultRow(r match.MatchResult) []string {
	status := string(r.Status())
	switch {
	case r.LowConfidence():
		status += " (low)"
	case r.UserDecided():
		status += " (user)"
	}

	var best, top, vote, segment string
	if rec, ok := r.BestMatch(); ok {
		best = describe(rec)
	}
	if len(r.Candidates) > 0 {
		top = strconv.FormatFloat(r.Candidates[0].Score, 'f', 3, 64)
	}
	if score, ok := r.VoteScore(); ok {
		vote = strconv.FormatFloat(score, 'f', 2, 64)
	}
	if s, ok := r.Segment(); ok {
		segment = string(s)
	}
	return []string{r.PersonEntryID, status, best, top, vote, segment}
}

func printResult(r match.MatchResult) {
	fmt.Println(renderTable(resultHeaders, [][]string{resultRow(r)}, 3, 4))
}

func printCandidates(engine *match.Engine, r match.MatchResult) {
	if len(r.Candidates) == 0 {
		return
	}
	rows := make([][]string, 0, len(r.Candidates))
	for i, c := range r.Candidates {
		parts := engine.Explain(c)
		row := []string{strconv.Itoa(i + 1), describe(c.Record), strconv.FormatFloat(c.Score, 'f', 3, 64)}
		for _, key := range []string{"name", "geo", "age", "gender"} {
			if v, ok := parts[key+"_contribution"]; ok {
				row = append(row, strconv.FormatFloat(v, 'f', 3, 64))
			} else {
				row = append(row, "-")
			}
		}
		row = append(row, strings.Join(c.MatchedFields, ","))
		rows = append(rows, row)
	}
	fmt.Printf("Candidates for %s:\n", r.PersonEntryID)
	fmt.Println(renderTable(
		[]string{"#", "Record", "Score", "Name", "Geo", "Age", "Gender", "Matched"},
		rows, 2, 3, 4, 5, 6))
}

func describe(rec match.SafeRecord) string {
	name := strings.TrimSpace(strings.Join([]string{rec.FirstName, rec.MiddleName, rec.LastName}, " "))
	name = strings.Join(strings.Fields(name), " ")
	if rec.BirthYear > 0 {
		name = fmt.Sprintf("%s (%d)", name, rec.BirthYear)
	}
	if rec.City != "" {
		name += ", " + rec.City
	}
	return name
}
