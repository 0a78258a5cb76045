package repository_test

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
	pkgerrors "jam-radar/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

// newTestRepo 每个用例独立的内存 SQLite
func newTestRepo(t *testing.T) (*repository.Repository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开 SQLite 失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取 sql.DB 失败: %v", err)
	}
	// :memory: 每个连接都是独立的库
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.User{},
		&model.JamPost{},
		&model.Comment{},
		&model.Reaction{},
		&model.Notification{},
		&model.Conversation{},
		&model.Message{},
	); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}

	return repository.NewRepository(db), db
}

func seedUser(t *testing.T, repo *repository.Repository, email string) *model.User {
	t.Helper()
	u := &model.User{Name: "测试用户", Email: email, PasswordHash: "$2a$10$placeholder", Role: model.RoleUser}
	if err := repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	return u
}

func seedJamPost(t *testing.T, repo *repository.Repository, userID uint, level string) *model.JamPost {
	t.Helper()
	p := &model.JamPost{UserID: userID, Latitude: 40.7128, Longitude: -74.0060, Level: level}
	if err := repo.JamPost.Create(context.Background(), p); err != nil {
		t.Fatalf("创建上报失败: %v", err)
	}
	return p
}

func nearbyNotification(userID, jamPostID uint) *model.Notification {
	d := 1234.5
	return &model.Notification{
		UserID:    userID,
		JamPostID: &jamPostID,
		Message:   "New traffic jam detected 1.2km away - high severity",
		Type:      model.NotificationNearbyJam,
		Distance:  &d,
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Notification dedup
// ═══════════════════════════════════════════════════════════

func TestNotification_CreateIfAbsent_Dedup(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	u := seedUser(t, repo, "a@example.com")
	p := seedJamPost(t, repo, u.ID, model.JamLevelHigh)

	first := nearbyNotification(u.ID, p.ID)
	created, err := repo.Notification.CreateIfAbsent(ctx, first)
	if err != nil {
		t.Fatalf("首次创建失败: %v", err)
	}
	if !created {
		t.Fatal("期望首次调用 created=true")
	}

	second := nearbyNotification(u.ID, p.ID)
	second.Message = "另一条消息"
	created, err = repo.Notification.CreateIfAbsent(ctx, second)
	if err != nil {
		t.Fatalf("重复创建失败: %v", err)
	}
	if created {
		t.Error("期望重复调用 created=false")
	}
	if second.ID != first.ID {
		t.Errorf("期望回填已有记录 ID=%d，实际=%d", first.ID, second.ID)
	}
	if second.Message != first.Message {
		t.Errorf("期望回填原消息，实际=%q", second.Message)
	}

	total, err := repo.Notification.Count(ctx, model.NotificationFilter{UserID: u.ID})
	if err != nil {
		t.Fatalf("Count 失败: %v", err)
	}
	if total != 1 {
		t.Errorf("期望只存在 1 条通知，实际=%d", total)
	}
}

func TestNotification_CreateIfAbsent_DifferentTypeIsSeparate(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	u := seedUser(t, repo, "a@example.com")
	p := seedJamPost(t, repo, u.ID, model.JamLevelLow)

	if _, err := repo.Notification.CreateIfAbsent(ctx, nearbyNotification(u.ID, p.ID)); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	update := nearbyNotification(u.ID, p.ID)
	update.Type = model.NotificationJamUpdate
	created, err := repo.Notification.CreateIfAbsent(ctx, update)
	if err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if !created {
		t.Error("不同类型的通知应各自创建")
	}
}

func TestNotification_CreateIfAbsent_NilJamPostDedup(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "a@example.com")
	p := seedJamPost(t, repo, u.ID, model.JamLevelLow)

	first := &model.Notification{UserID: u.ID, Message: "系统公告", Type: model.NotificationGeneral}
	created, err := repo.Notification.CreateIfAbsent(ctx, first)
	if err != nil || !created {
		t.Fatalf("首次创建应成功: created=%v err=%v", created, err)
	}

	second := &model.Notification{UserID: u.ID, Message: "另一条公告", Type: model.NotificationGeneral}
	created, err = repo.Notification.CreateIfAbsent(ctx, second)
	if err != nil {
		t.Fatalf("重复创建失败: %v", err)
	}
	if created {
		t.Error("jam_post_id 为空的重复通知期望 created=false")
	}
	if second.ID != first.ID || second.JamPostID != nil || second.Message != "系统公告" {
		t.Errorf("期望回填已有记录 ID=%d，实际=%+v", first.ID, second)
	}

	// 同类型但关联了上报的通知不与之冲突
	linked := &model.Notification{UserID: u.ID, JamPostID: &p.ID, Message: "关联上报", Type: model.NotificationGeneral}
	if created, err := repo.Notification.CreateIfAbsent(ctx, linked); err != nil || !created {
		t.Errorf("关联上报的通知应单独创建: created=%v err=%v", created, err)
	}

	// 其他用户不受影响
	other := seedUser(t, repo, "b@example.com")
	if created, err := repo.Notification.CreateIfAbsent(ctx, &model.Notification{UserID: other.ID, Message: "系统公告", Type: model.NotificationGeneral}); err != nil || !created {
		t.Errorf("其他用户应单独创建: created=%v err=%v", created, err)
	}

	total, err := repo.Notification.Count(ctx, model.NotificationFilter{UserID: u.ID})
	if err != nil {
		t.Fatalf("Count 失败: %v", err)
	}
	if total != 2 {
		t.Errorf("期望用户 a 有 2 条通知，实际=%d", total)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Notification ownership
// ═══════════════════════════════════════════════════════════

func TestNotification_OwnershipIsolation(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	alice := seedUser(t, repo, "alice@example.com")
	bob := seedUser(t, repo, "bob@example.com")
	p := seedJamPost(t, repo, alice.ID, model.JamLevelMedium)

	n := nearbyNotification(alice.ID, p.ID)
	if err := repo.Notification.Create(ctx, n); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	_, err := repo.Notification.FindOne(ctx, model.NotificationFilter{UserID: bob.ID, ID: &n.ID})
	if !pkgerrors.IsNotFound(err) {
		t.Errorf("期望他人查询返回 not found，实际=%v", err)
	}

	// 以 bob 的身份删除不应生效
	if err := repo.Notification.Delete(ctx, &model.Notification{BaseModel: model.BaseModel{ID: n.ID}, UserID: bob.ID}); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := repo.Notification.FindOne(ctx, model.NotificationFilter{UserID: alice.ID, ID: &n.ID}); err != nil {
		t.Errorf("通知不应被他人删除: %v", err)
	}

	list, err := repo.Notification.List(ctx, model.NotificationFilter{UserID: bob.ID})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("期望 bob 列表为空，实际=%d", len(list))
	}
}

func TestNotification_MarkAllRead(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	alice := seedUser(t, repo, "alice@example.com")
	bob := seedUser(t, repo, "bob@example.com")
	seeds := []struct {
		userID uint
		typ    string
	}{
		{alice.ID, model.NotificationGeneral},
		{alice.ID, model.NotificationJamUpdate},
		{bob.ID, model.NotificationGeneral},
	}
	for _, s := range seeds {
		n := &model.Notification{UserID: s.userID, Message: "m", Type: s.typ}
		if err := repo.Notification.Create(ctx, n); err != nil {
			t.Fatalf("创建失败: %v", err)
		}
	}

	affected, err := repo.Notification.MarkAllRead(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MarkAllRead 失败: %v", err)
	}
	if affected != 2 {
		t.Errorf("期望更新 2 条，实际=%d", affected)
	}

	unread := false
	bobUnread, _ := repo.Notification.Count(ctx, model.NotificationFilter{UserID: bob.ID, IsRead: &unread})
	if bobUnread != 1 {
		t.Errorf("bob 的未读数不应受影响，实际=%d", bobUnread)
	}
}

func TestNotification_ListOrderNewestFirst(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	u := seedUser(t, repo, "a@example.com")

	var ids []uint
	for _, typ := range []string{model.NotificationGeneral, model.NotificationJamUpdate, model.NotificationJamResolved} {
		n := &model.Notification{UserID: u.ID, Message: "m", Type: typ}
		if err := repo.Notification.Create(ctx, n); err != nil {
			t.Fatalf("创建失败: %v", err)
		}
		ids = append(ids, n.ID)
	}

	list, err := repo.Notification.List(ctx, model.NotificationFilter{UserID: u.ID})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(list) != 3 || list[0].ID != ids[2] {
		t.Errorf("期望最新的通知排在最前，实际=%+v", list)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Jam posts, comments, reactions
// ═══════════════════════════════════════════════════════════

func TestJamPost_ListFilterAndCascadeDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	u := seedUser(t, repo, "a@example.com")
	high := seedJamPost(t, repo, u.ID, model.JamLevelHigh)
	seedJamPost(t, repo, u.ID, model.JamLevelLow)

	list, total, err := repo.JamPost.List(ctx, repository.JamPostFilter{Level: model.JamLevelHigh}, 0, 10)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 || len(list) != 1 || list[0].ID != high.ID {
		t.Errorf("按等级过滤结果不符: total=%d list=%+v", total, list)
	}
	if list[0].User == nil || list[0].User.Email != "a@example.com" {
		t.Error("期望预加载上报人")
	}

	if err := repo.Comment.Create(ctx, &model.Comment{UserID: u.ID, JamPostID: high.ID, Content: "堵死了"}); err != nil {
		t.Fatalf("创建评论失败: %v", err)
	}
	if err := repo.Reaction.Upsert(ctx, &model.Reaction{UserID: u.ID, JamPostID: high.ID, ReactionType: model.ReactionLike}); err != nil {
		t.Fatalf("创建反应失败: %v", err)
	}
	if err := repo.Notification.Create(ctx, nearbyNotification(u.ID, high.ID)); err != nil {
		t.Fatalf("创建通知失败: %v", err)
	}

	if err := repo.JamPost.Delete(ctx, high.ID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}

	if _, err := repo.JamPost.GetByID(ctx, high.ID); !pkgerrors.IsNotFound(err) {
		t.Errorf("期望上报已删除，实际=%v", err)
	}
	counts, _ := repo.Comment.CountByJamPosts(ctx, []uint{high.ID})
	if counts[high.ID] != 0 {
		t.Errorf("期望评论被级联删除，实际=%d", counts[high.ID])
	}
	if n, _ := repo.Reaction.Count(ctx); n != 0 {
		t.Errorf("期望反应被级联删除，实际=%d", n)
	}
	if n, _ := repo.Notification.Count(ctx, model.NotificationFilter{UserID: u.ID}); n != 0 {
		t.Errorf("期望通知被级联删除，实际=%d", n)
	}
}

func TestReaction_UpsertReplacesType(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	u := seedUser(t, repo, "a@example.com")
	p := seedJamPost(t, repo, u.ID, model.JamLevelMedium)

	for _, rt := range []string{model.ReactionLike, model.ReactionHelpful} {
		if err := repo.Reaction.Upsert(ctx, &model.Reaction{UserID: u.ID, JamPostID: p.ID, ReactionType: rt}); err != nil {
			t.Fatalf("Upsert(%s) 失败: %v", rt, err)
		}
	}

	got, err := repo.Reaction.GetByUserAndJamPost(ctx, u.ID, p.ID)
	if err != nil {
		t.Fatalf("查询反应失败: %v", err)
	}
	if got.ReactionType != model.ReactionHelpful {
		t.Errorf("期望反应类型被覆盖为 helpful，实际=%s", got.ReactionType)
	}

	counts, err := repo.Reaction.CountsByJamPosts(ctx, []uint{p.ID})
	if err != nil {
		t.Fatalf("CountsByJamPosts 失败: %v", err)
	}
	if counts[p.ID][model.ReactionHelpful] != 1 || counts[p.ID][model.ReactionLike] != 0 {
		t.Errorf("反应计数不符: %+v", counts[p.ID])
	}
}

func TestUser_DeleteRemovesOwnedData(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	alice := seedUser(t, repo, "alice@example.com")
	bob := seedUser(t, repo, "bob@example.com")
	alicePost := seedJamPost(t, repo, alice.ID, model.JamLevelHigh)
	bobPost := seedJamPost(t, repo, bob.ID, model.JamLevelLow)

	// bob 在 alice 的上报下留言，应随 alice 的上报一起删除
	if err := repo.Comment.Create(ctx, &model.Comment{UserID: bob.ID, JamPostID: alicePost.ID, Content: "收到"}); err != nil {
		t.Fatalf("创建评论失败: %v", err)
	}

	if err := repo.User.Delete(ctx, alice.ID); err != nil {
		t.Fatalf("删除用户失败: %v", err)
	}

	if _, err := repo.User.GetByID(ctx, alice.ID); !pkgerrors.IsNotFound(err) {
		t.Errorf("期望用户已删除，实际=%v", err)
	}
	if _, err := repo.JamPost.GetByID(ctx, bobPost.ID); err != nil {
		t.Errorf("他人的上报不应被删除: %v", err)
	}
	if n, _ := repo.Comment.Count(ctx, nil); n != 0 {
		t.Errorf("期望评论被删除，实际=%d", n)
	}
}

func TestUser_ListSearch(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, repo, "alice@example.com")
	seedUser(t, repo, "bob@example.com")

	users, total, err := repo.User.List(ctx, "alice", 0, 10)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Email != "alice@example.com" {
		t.Errorf("搜索结果不符: total=%d users=%+v", total, users)
	}
}

func TestUser_ListByRole(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first := seedUser(t, repo, "first@example.com")
	second := seedUser(t, repo, "second@example.com")
	admin := &model.User{Name: "管理员", Email: "admin@example.com", PasswordHash: "$2a$10$placeholder", Role: model.RoleAdmin}
	if err := repo.User.Create(ctx, admin); err != nil {
		t.Fatalf("创建管理员失败: %v", err)
	}

	users, err := repo.User.ListByRole(ctx, model.RoleUser)
	if err != nil {
		t.Fatalf("ListByRole 失败: %v", err)
	}
	if len(users) != 2 || users[0].ID != second.ID || users[1].ID != first.ID {
		t.Errorf("期望仅普通用户且新注册在前，实际=%+v", users)
	}
}

func TestConversation_ListLatestMessageAndDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	alice := seedUser(t, repo, "alice@example.com")
	bob := seedUser(t, repo, "bob@example.com")
	carol := seedUser(t, repo, "carol@example.com")

	conv := &model.Conversation{User1ID: alice.ID, User2ID: bob.ID}
	if err := repo.Conversation.Create(ctx, conv); err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}
	other := &model.Conversation{User1ID: bob.ID, User2ID: carol.ID}
	if err := repo.Conversation.Create(ctx, other); err != nil {
		t.Fatalf("创建会话失败: %v", err)
	}
	for _, text := range []string{"第一条", "第二条"} {
		content := text
		if err := repo.Message.Create(ctx, &model.Message{
			ConversationID: conv.ID, SenderID: alice.ID, Content: &content, MessageType: model.MessageText,
		}); err != nil {
			t.Fatalf("创建消息失败: %v", err)
		}
	}

	// 反向查找也命中
	if found, err := repo.Conversation.FindBetween(ctx, bob.ID, alice.ID, 0); err != nil || found.ID != conv.ID {
		t.Errorf("FindBetween 结果不符: %+v, err=%v", found, err)
	}
	if _, err := repo.Conversation.FindBetween(ctx, alice.ID, bob.ID, conv.ID); !pkgerrors.IsNotFound(err) {
		t.Errorf("排除自身后期望未找到，实际=%v", err)
	}

	convs, err := repo.Conversation.List(ctx, &alice.ID)
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if len(convs) != 1 || len(convs[0].Messages) != 1 || *convs[0].Messages[0].Content != "第二条" {
		t.Fatalf("期望 1 个会话且附带最新消息，实际=%+v", convs)
	}
	if convs[0].User1 == nil || convs[0].Messages[0].Sender == nil {
		t.Error("期望预加载用户与发送者")
	}

	full, err := repo.Conversation.GetWithMessages(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetWithMessages 失败: %v", err)
	}
	if len(full.Messages) != 2 || *full.Messages[0].Content != "第一条" {
		t.Errorf("消息应按时间正序，实际=%+v", full.Messages)
	}

	if err := repo.Conversation.Delete(ctx, conv.ID); err != nil {
		t.Fatalf("删除会话失败: %v", err)
	}
	if msgs, _ := repo.Message.ListByConversation(ctx, conv.ID); len(msgs) != 0 {
		t.Errorf("会话消息应一并删除，剩余=%d", len(msgs))
	}

	// 删除用户时其参与的会话一并删除
	if err := repo.User.Delete(ctx, carol.ID); err != nil {
		t.Fatalf("删除用户失败: %v", err)
	}
	if _, err := repo.Conversation.GetByID(ctx, other.ID); !pkgerrors.IsNotFound(err) {
		t.Errorf("期望会话已删除，实际=%v", err)
	}
}
