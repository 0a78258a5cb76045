package service

import (
	"time"

	"jam-radar/backend/internal/dto"
	"jam-radar/backend/internal/model"
)

// ── model → dto 转换 ──

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toUserSummary(u *model.User) *dto.UserSummary {
	if u == nil {
		return nil
	}
	return &dto.UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

func toJamPostSummary(p *model.JamPost) *dto.JamPostSummary {
	if p == nil {
		return nil
	}
	return &dto.JamPostSummary{
		ID:        p.ID,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Note:      p.Note,
		Level:     p.Level,
		Image:     p.Image,
	}
}

func toNotificationResponse(n *model.Notification) *dto.NotificationResponse {
	return &dto.NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		JamPostID: n.JamPostID,
		Message:   n.Message,
		Type:      n.Type,
		IsRead:    n.IsRead,
		Distance:  n.Distance,
		JamPost:   toJamPostSummary(n.JamPost),
		CreatedAt: formatTime(n.CreatedAt),
		UpdatedAt: formatTime(n.UpdatedAt),
	}
}

func toCommentResponse(c *model.Comment, caller Caller) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        c.ID,
		JamPostID: c.JamPostID,
		UserID:    c.UserID,
		Content:   c.Content,
		User:      toUserSummary(c.User),
		IsOwner:   caller.CanModify(c.UserID),
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
}

// reactionCounts 补齐全部反应类型并计算总数
func reactionCounts(raw map[string]int64) (map[string]int64, int64) {
	counts := make(map[string]int64, len(model.ReactionTypes))
	var total int64
	for _, t := range model.ReactionTypes {
		counts[t] = raw[t]
		total += raw[t]
	}
	return counts, total
}

func toMessageResponse(m *model.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Sender:         toUserSummary(m.Sender),
		Content:        m.Content,
		Image:          m.Image,
		MessageType:    m.MessageType,
		IsRead:         m.IsRead,
		CreatedAt:      formatTime(m.CreatedAt),
		UpdatedAt:      formatTime(m.UpdatedAt),
	}
}

// toConversationResponse withMessages=false 时 Messages 中至多一条，作为最新消息返回
func toConversationResponse(c *model.Conversation, withMessages bool) dto.ConversationResponse {
	resp := dto.ConversationResponse{
		ID:        c.ID,
		User1ID:   c.User1ID,
		User2ID:   c.User2ID,
		User1:     toUserSummary(c.User1),
		User2:     toUserSummary(c.User2),
		CreatedAt: formatTime(c.CreatedAt),
		UpdatedAt: formatTime(c.UpdatedAt),
	}
	if withMessages {
		resp.Messages = make([]dto.MessageResponse, 0, len(c.Messages))
		for i := range c.Messages {
			resp.Messages = append(resp.Messages, toMessageResponse(&c.Messages[i]))
		}
	} else if len(c.Messages) > 0 {
		last := toMessageResponse(&c.Messages[len(c.Messages)-1])
		resp.LastMessage = &last
	}
	return resp
}
