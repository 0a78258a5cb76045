package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
	pkgerrors "jam-radar/backend/pkg/errors"
)

// ── 拥堵上报模块业务错误 ──

var (
	ErrJamPostNotFound   = errors.New("拥堵上报不存在")
	ErrTargetUserInvalid = errors.New("指定的上报用户不存在")
	ErrNoPermission      = pkgerrors.ErrForbidden
	ErrInvalidJamLevel   = errors.New("无效的拥堵等级")
)

// statsRecentWindow 统计中"近期"的时间窗口
const statsRecentWindow = 7 * 24 * time.Hour

// JamPostService 拥堵上报业务接口
type JamPostService interface {
	// List 普通用户列表，附带 user_reaction 与 is_owner
	List(ctx context.Context, caller Caller, req *dto.JamPostListRequest) ([]dto.JamPostResponse, int64, error)
	// AdminList 管理端列表
	AdminList(ctx context.Context, req *dto.JamPostListRequest) ([]dto.JamPostResponse, int64, error)
	GetByID(ctx context.Context, caller Caller, id uint) (*dto.JamPostResponse, error)
	Create(ctx context.Context, caller Caller, req *dto.CreateJamPostRequest) (*dto.JamPostResponse, error)
	Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateJamPostRequest) (*dto.JamPostResponse, error)
	Delete(ctx context.Context, caller Caller, id uint) error
	Stats(ctx context.Context) (*dto.JamPostStatsResponse, error)
}

type jamPostService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewJamPostService 创建 JamPostService 实例
func NewJamPostService(repo *repository.Repository, logger *zap.Logger) JamPostService {
	return &jamPostService{repo: repo, logger: logger, now: time.Now}
}

// ────────────────────── List ──────────────────────

func (s *jamPostService) List(ctx context.Context, caller Caller, req *dto.JamPostListRequest) ([]dto.JamPostResponse, int64, error) {
	return s.list(ctx, &caller, req)
}

func (s *jamPostService) AdminList(ctx context.Context, req *dto.JamPostListRequest) ([]dto.JamPostResponse, int64, error) {
	return s.list(ctx, nil, req)
}

func (s *jamPostService) list(ctx context.Context, caller *Caller, req *dto.JamPostListRequest) ([]dto.JamPostResponse, int64, error) {
	filter := buildJamPostFilter(req, s.now())
	limit := req.GetLimit(dto.DefaultJamPostLimit)

	posts, total, err := s.repo.JamPost.List(ctx, filter, req.GetOffset(dto.DefaultJamPostLimit), limit)
	if err != nil {
		s.logger.Error("查询上报列表失败", zap.Error(err))
		return nil, 0, err
	}

	list, err := s.enrich(ctx, caller, posts)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *jamPostService) GetByID(ctx context.Context, caller Caller, id uint) (*dto.JamPostResponse, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}

	list, err := s.enrich(ctx, &caller, []model.JamPost{*post})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ────────────────────── Create ──────────────────────

func (s *jamPostService) Create(ctx context.Context, caller Caller, req *dto.CreateJamPostRequest) (*dto.JamPostResponse, error) {
	ownerID := caller.UserID
	if req.UserID != nil && caller.IsAdmin() {
		if err := s.ensureUser(ctx, *req.UserID); err != nil {
			return nil, err
		}
		ownerID = *req.UserID
	}

	level := req.Level
	if level == "" {
		level = model.JamLevelMedium
	}
	if !model.ValidJamLevel(level) {
		return nil, ErrInvalidJamLevel
	}

	post := &model.JamPost{
		UserID:    ownerID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Note:      req.Note,
		Image:     req.Image,
		Level:     level,
	}
	if err := s.repo.JamPost.Create(ctx, post); err != nil {
		s.logger.Error("创建上报失败", zap.Uint("user_id", ownerID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("新增拥堵上报",
		zap.Uint("id", post.ID),
		zap.Uint("user_id", ownerID),
		zap.String("level", level),
	)

	return s.GetByID(ctx, caller, post.ID)
}

// ────────────────────── Update ──────────────────────

func (s *jamPostService) Update(ctx context.Context, caller Caller, id uint, req *dto.UpdateJamPostRequest) (*dto.JamPostResponse, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanModify(post.UserID) {
		return nil, ErrNoPermission
	}

	if req.UserID != nil && caller.IsAdmin() && *req.UserID != post.UserID {
		if err := s.ensureUser(ctx, *req.UserID); err != nil {
			return nil, err
		}
		post.UserID = *req.UserID
	}
	if req.Latitude != nil {
		post.Latitude = *req.Latitude
	}
	if req.Longitude != nil {
		post.Longitude = *req.Longitude
	}
	if req.Note != nil {
		post.Note = req.Note
	}
	if req.Image != nil {
		post.Image = req.Image
	}
	if req.Level != nil {
		if !model.ValidJamLevel(*req.Level) {
			return nil, ErrInvalidJamLevel
		}
		post.Level = *req.Level
	}

	if err := s.repo.JamPost.Update(ctx, post); err != nil {
		s.logger.Error("更新上报失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, caller, id)
}

// ────────────────────── Delete ──────────────────────

func (s *jamPostService) Delete(ctx context.Context, caller Caller, id uint) error {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanModify(post.UserID) {
		return ErrNoPermission
	}

	if err := s.repo.JamPost.Delete(ctx, id); err != nil {
		s.logger.Error("删除上报失败", zap.Uint("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("拥堵上报已删除", zap.Uint("id", id), zap.Uint("operator", caller.UserID))
	return nil
}

// ────────────────────── Stats ──────────────────────

func (s *jamPostService) Stats(ctx context.Context) (*dto.JamPostStatsResponse, error) {
	since := s.now().Add(-statsRecentWindow)
	stats := &dto.JamPostStatsResponse{}

	var err error
	if stats.TotalPosts, err = s.repo.JamPost.Count(ctx, nil); err != nil {
		return nil, s.statsError(err)
	}
	if stats.RecentPosts, err = s.repo.JamPost.Count(ctx, &since); err != nil {
		return nil, s.statsError(err)
	}
	if stats.TotalComments, err = s.repo.Comment.Count(ctx, nil); err != nil {
		return nil, s.statsError(err)
	}
	if stats.RecentComments, err = s.repo.Comment.Count(ctx, &since); err != nil {
		return nil, s.statsError(err)
	}
	if stats.TotalReactions, err = s.repo.Reaction.Count(ctx); err != nil {
		return nil, s.statsError(err)
	}
	if stats.TotalUsers, err = s.repo.User.Count(ctx); err != nil {
		return nil, s.statsError(err)
	}

	levels, err := s.repo.JamPost.CountByLevel(ctx)
	if err != nil {
		return nil, s.statsError(err)
	}
	stats.PostsByLevel = make([]dto.CountByKey, 0, len(levels))
	for _, l := range levels {
		stats.PostsByLevel = append(stats.PostsByLevel, dto.CountByKey{Key: l.Level, Count: l.Count})
	}

	types, err := s.repo.Reaction.CountByType(ctx)
	if err != nil {
		return nil, s.statsError(err)
	}
	stats.ReactionsByType = make([]dto.CountByKey, 0, len(types))
	for _, t := range types {
		stats.ReactionsByType = append(stats.ReactionsByType, dto.CountByKey{Key: t.Type, Count: t.Count})
	}

	return stats, nil
}

// ── 内部辅助方法 ──

func (s *jamPostService) statsError(err error) error {
	s.logger.Error("统计上报数据失败", zap.Error(err))
	return err
}

func (s *jamPostService) getPost(ctx context.Context, id uint) (*model.JamPost, error) {
	post, err := s.repo.JamPost.GetByID(ctx, id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, ErrJamPostNotFound
		}
		s.logger.Error("查询上报失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return post, nil
}

func (s *jamPostService) ensureUser(ctx context.Context, userID uint) error {
	if _, err := s.repo.User.GetByID(ctx, userID); err != nil {
		if pkgerrors.IsNotFound(err) {
			return ErrTargetUserInvalid
		}
		s.logger.Error("查询用户失败", zap.Uint("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// enrich 批量补充评论数、反应计数；caller 非空时补充 user_reaction 与 is_owner
func (s *jamPostService) enrich(ctx context.Context, caller *Caller, posts []model.JamPost) ([]dto.JamPostResponse, error) {
	ids := make([]uint, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].ID)
	}

	commentCounts, err := s.repo.Comment.CountByJamPosts(ctx, ids)
	if err != nil {
		s.logger.Error("统计评论数失败", zap.Error(err))
		return nil, err
	}
	reactions, err := s.repo.Reaction.CountsByJamPosts(ctx, ids)
	if err != nil {
		s.logger.Error("统计反应数失败", zap.Error(err))
		return nil, err
	}

	var mine map[uint]string
	if caller != nil {
		mine, err = s.repo.Reaction.UserReactions(ctx, caller.UserID, ids)
		if err != nil {
			s.logger.Error("查询用户反应失败", zap.Uint("user_id", caller.UserID), zap.Error(err))
			return nil, err
		}
	}

	result := make([]dto.JamPostResponse, 0, len(posts))
	for i := range posts {
		p := &posts[i]
		counts, total := reactionCounts(reactions[p.ID])
		item := dto.JamPostResponse{
			ID:            p.ID,
			UserID:        p.UserID,
			Latitude:      p.Latitude,
			Longitude:     p.Longitude,
			Note:          p.Note,
			Image:         p.Image,
			Level:         p.Level,
			User:          toUserSummary(p.User),
			CommentCount:  commentCounts[p.ID],
			Reactions:     counts,
			ReactionTotal: total,
			CreatedAt:     formatTime(p.CreatedAt),
			UpdatedAt:     formatTime(p.UpdatedAt),
		}
		if caller != nil {
			isOwner := p.UserID == caller.UserID
			item.IsOwner = &isOwner
			if rt, ok := mine[p.ID]; ok {
				item.UserReaction = &rt
			}
		}
		result = append(result, item)
	}
	return result, nil
}

// buildJamPostFilter 将查询参数转换为仓储层筛选条件
func buildJamPostFilter(req *dto.JamPostListRequest, now time.Time) repository.JamPostFilter {
	filter := repository.JamPostFilter{Search: req.Search}
	if req.Level != "" && req.Level != "all" {
		filter.Level = req.Level
	}
	filter.Since = timeFilterSince(req.TimeFilter, now)
	return filter
}

// timeFilterSince 计算时间筛选的起点；本周从周日 00:00 开始
func timeFilterSince(timeFilter string, now time.Time) *time.Time {
	var since time.Time
	switch timeFilter {
	case dto.TimeFilterLastHour:
		since = now.Add(-time.Hour)
	case dto.TimeFilterLast5Hours:
		since = now.Add(-5 * time.Hour)
	case dto.TimeFilterToday:
		since = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case dto.TimeFilterThisWeek:
		since = time.Date(now.Year(), now.Month(), now.Day()-int(now.Weekday()), 0, 0, 0, 0, now.Location())
	default:
		return nil
	}
	return &since
}
