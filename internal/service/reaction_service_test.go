package service

import (
	"context"
	"errors"
	"testing"

	"jam-radar/backend/internal/model"
)

func TestReactionService_ReactReplaces(t *testing.T) {
	repo, mocks := newMockRepos()
	svc := NewReactionService(repo, testLogger)
	owner, other, _ := seedCallers(mocks)
	ctx := context.Background()
	jamID := mocks.jamPost.seed(owner.UserID, 0, 0, model.JamLevelHigh)

	if _, err := svc.React(ctx, other, jamID, model.ReactionLike); err != nil {
		t.Fatalf("React 应成功: %v", err)
	}
	got, err := svc.React(ctx, other, jamID, model.ReactionAccurate)
	if err != nil {
		t.Fatalf("React 应成功: %v", err)
	}

	if got.Total != 1 {
		t.Errorf("同一用户重复反应应覆盖，期望 Total=1，实际=%d", got.Total)
	}
	if got.Reactions[model.ReactionLike] != 0 || got.Reactions[model.ReactionAccurate] != 1 {
		t.Errorf("反应计数不符: %+v", got.Reactions)
	}
	if got.UserReaction == nil || *got.UserReaction != model.ReactionAccurate {
		t.Errorf("期望 UserReaction=accurate，实际=%v", got.UserReaction)
	}

	fromOwner, err := svc.Summary(ctx, owner, jamID)
	if err != nil {
		t.Fatalf("Summary 应成功: %v", err)
	}
	if fromOwner.UserReaction != nil {
		t.Error("未反应的用户 UserReaction 应为空")
	}
}

func TestReactionService_Remove(t *testing.T) {
	repo, mocks := newMockRepos()
	svc := NewReactionService(repo, testLogger)
	owner, _, _ := seedCallers(mocks)
	ctx := context.Background()
	jamID := mocks.jamPost.seed(owner.UserID, 0, 0, model.JamLevelHigh)

	if _, err := svc.Remove(ctx, owner, jamID); !errors.Is(err, ErrReactionNotFound) {
		t.Errorf("期望 ErrReactionNotFound，实际: %v", err)
	}

	_, _ = svc.React(ctx, owner, jamID, model.ReactionHelpful)
	got, err := svc.Remove(ctx, owner, jamID)
	if err != nil {
		t.Fatalf("Remove 应成功: %v", err)
	}
	if got.Total != 0 || got.UserReaction != nil {
		t.Errorf("删除后期望无反应，实际: %+v", got)
	}
}

func TestReactionService_Errors(t *testing.T) {
	repo, mocks := newMockRepos()
	svc := NewReactionService(repo, testLogger)
	owner, _, _ := seedCallers(mocks)
	ctx := context.Background()
	jamID := mocks.jamPost.seed(owner.UserID, 0, 0, model.JamLevelHigh)

	if _, err := svc.React(ctx, owner, jamID, "love"); !errors.Is(err, ErrInvalidReactionType) {
		t.Errorf("期望 ErrInvalidReactionType，实际: %v", err)
	}
	if _, err := svc.React(ctx, owner, 999, model.ReactionLike); !errors.Is(err, ErrJamPostNotFound) {
		t.Errorf("期望 ErrJamPostNotFound，实际: %v", err)
	}
	if _, err := svc.Summary(ctx, owner, 999); !errors.Is(err, ErrJamPostNotFound) {
		t.Errorf("期望 ErrJamPostNotFound，实际: %v", err)
	}
}
