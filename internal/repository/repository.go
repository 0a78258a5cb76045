package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User         UserRepository
	JamPost      JamPostRepository
	Comment      CommentRepository
	Reaction     ReactionRepository
	Notification NotificationRepository
	Conversation ConversationRepository
	Message      MessageRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		JamPost:      NewJamPostRepo(db),
		Comment:      NewCommentRepo(db),
		Reaction:     NewReactionRepo(db),
		Notification: NewNotificationRepo(db),
		Conversation: NewConversationRepo(db),
		Message:      NewMessageRepo(db),
	}
}
