package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"alfredoptarigan/resume-ranker/internal/models"
)

var rankCmd = &cobra.Command{
	Use:   "rank [job description]",
	Short: "Rank stored candidates against a job description",
	Long: `Rank scores every stored candidate against the job description and
prints them best first. Arguments are joined with spaces.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().Bool("json", false, "print the ranking as JSON")
	rankCmd.Flags().Int("limit", 0, "show only the top N candidates (0 for all)")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	jobDescription := strings.TrimSpace(strings.Join(args, " "))
	if jobDescription == "" {
		return fmt.Errorf("job description is required")
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	limit, _ := cmd.Flags().GetInt("limit")

	container, err := newContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx := commandContext(cmd)

	candidates, err := container.CandidateRepo.LoadAll(ctx)
	if err != nil {
		return err
	}

	result, err := container.RankingService.Rank(ctx, jobDescription, candidates)
	if err != nil {
		return err
	}

	ranked := result.Candidates
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(models.MatchResponse{
			Message:    "Resumes ranked successfully!",
			Tier:       string(result.Tier),
			Degraded:   result.Degraded,
			Excluded:   result.Excluded,
			Candidates: ranked,
		})
	}

	if result.Degraded {
		fmt.Fprintln(out, "warning: semantic scoring unavailable, ranked with the lexical tier")
	}
	if result.Excluded > 0 {
		fmt.Fprintf(out, "warning: %d candidate(s) could not be scored\n", result.Excluded)
	}
	if len(ranked) == 0 {
		fmt.Fprintln(out, "No candidates in store")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCORE\tNAME\tEMAIL\tSKILLS")
	for i, c := range ranked {
		fmt.Fprintf(tw, "%d\t%.2f\t%s\t%s\t%s\n", i+1, c.Score, c.Name, c.Email,
			strings.Join(c.MatchedInfo.TechnicalSkills, models.SkillsDelimiter))
	}
	return tw.Flush()
}
