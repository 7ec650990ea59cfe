package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"talentmatch/internal/lifecycle"
	"talentmatch/internal/logger"
	"talentmatch/internal/matching"
	"talentmatch/internal/utils"
)

const (
	PromptApprove     = "Approve"
	PromptReject      = "Reject"
	PromptMarkPending = "Mark pending"
	PromptEditNotes   = "Edit notes"
	PromptBack        = "Back"
	PromptExit        = "Exit"

	summaryPreviewLen = 120
)

var errExit = errors.New("exit requested")

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review a ranked batch interactively and approve or reject candidates",
	Run: func(cmd *cobra.Command, _ []string) {
		review(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringP("user", "u", "", "recruiter identity owning the batches")
	reviewCmd.Flags().StringP("batch", "b", "", "batch id to review (latest batch when unset)")

	reviewCmd.MarkFlagRequired("user")
}

// review drives the approve/reject loop for one stored batch. Approvals feed
// the validated-skill set used by the next submission.
func review(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	owner := cmd.Flag("user").Value.String()

	st, err := buildStore(config, logger)
	if err != nil {
		logger.Fatal("building the store", zap.Error(err))
	}
	manager := lifecycle.New(st, logger)

	batchID := cmd.Flag("batch").Value.String()
	if batchID == "" {
		batchID, err = pickBatch(ctx, st, owner)
		if err != nil {
			logger.Fatal("selecting a batch", zap.Error(err))
		}
	}

	batch, err := manager.GetBatch(ctx, owner, batchID)
	if err != nil {
		logger.Fatal("loading the batch", zap.Error(err))
	}

	for {
		candidate, err := pickCandidate(batch)
		if err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("selecting a candidate", zap.Error(err))
		}

		batch, err = handleCandidate(ctx, manager, owner, batch.ID, candidate)
		if err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("updating the candidate", zap.Error(err))
		}
	}
}

func pickBatch(ctx context.Context, st matching.Store, owner string) (string, error) {
	batches, err := st.ListBatches(ctx, owner)
	if err != nil {
		return "", err
	}
	if len(batches) == 0 {
		return "", fmt.Errorf("no batches found for %q", owner)
	}

	items := make([]string, 0, len(batches))
	for _, batch := range batches {
		items = append(items, fmt.Sprintf("%s | %d candidates (%s)",
			batch.JobTitle, len(batch.RankedCandidates), batch.CreatedAt.Format("2006-01-02 15:04")))
	}

	picker := promptui.Select{
		Label: "Select a batch",
		Items: items,
	}

	index, _, err := picker.Run()
	if err != nil {
		return "", err
	}

	return batches[index].ID, nil
}

func pickCandidate(batch *matching.JobBatch) (*matching.Candidate, error) {
	items := make([]string, 0, len(batch.RankedCandidates)+1)
	for i, candidate := range batch.RankedCandidates {
		items = append(items, fmt.Sprintf("%d. %s | score %d [%s]",
			i+1, candidate.FileName, candidate.MatchScore, candidate.Status))
	}
	items = append(items, PromptExit)

	picker := promptui.Select{
		Label: "Select a candidate",
		Items: items,
	}

	index, _, err := picker.Run()
	if err != nil {
		return nil, err
	}
	if index == len(batch.RankedCandidates) {
		return nil, errExit
	}

	candidate := &batch.RankedCandidates[index]
	fmt.Println(utils.TruncateForLog(candidate.Summary, summaryPreviewLen))

	return candidate, nil
}

func handleCandidate(ctx context.Context, manager *lifecycle.Manager, owner, batchID string, candidate *matching.Candidate) (*matching.JobBatch, error) {
	picker := promptui.Select{
		Label: fmt.Sprintf("Action for %s", candidate.FileName),
		Items: []string{PromptApprove, PromptReject, PromptMarkPending, PromptEditNotes, PromptBack, PromptExit},
	}

	_, action, err := picker.Run()
	if err != nil {
		return nil, err
	}

	switch action {
	case PromptApprove:
		return manager.SetStatus(ctx, owner, batchID, candidate.ID, string(matching.StatusApproved))
	case PromptReject:
		return manager.SetStatus(ctx, owner, batchID, candidate.ID, string(matching.StatusRejected))
	case PromptMarkPending:
		return manager.SetStatus(ctx, owner, batchID, candidate.ID, string(matching.StatusPending))
	case PromptEditNotes:
		editor := promptui.Prompt{
			Label:   "Notes",
			Default: candidate.Notes,
		}
		notes, err := editor.Run()
		if err != nil {
			return nil, err
		}
		return manager.SetNotes(ctx, owner, batchID, candidate.ID, notes)
	case PromptBack:
		return manager.GetBatch(ctx, owner, batchID)
	default:
		return nil, errExit
	}
}
