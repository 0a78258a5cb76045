package handler

import "jam-radar/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	JamPost      *JamPostHandler
	Comment      *CommentHandler
	Reaction     *ReactionHandler
	Notification *NotificationHandler
	Conversation *ConversationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		JamPost:      NewJamPostHandler(svc.JamPost),
		Comment:      NewCommentHandler(svc.Comment),
		Reaction:     NewReactionHandler(svc.Reaction),
		Notification: NewNotificationHandler(svc.Notification),
		Conversation: NewConversationHandler(svc.Conversation, svc.Message),
		Export:       NewExportHandler(svc.Export),
	}
}
