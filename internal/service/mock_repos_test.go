package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"jam-radar/backend/config"
	"jam-radar/backend/internal/model"
	"jam-radar/backend/internal/repository"
)

// ── 测试辅助 ──

type mockRepos struct {
	user         *mockUserRepo
	jamPost      *mockJamPostRepo
	comment      *mockCommentRepo
	reaction     *mockReactionRepo
	notification *mockNotificationRepo
	conversation *mockConversationRepo
	message      *mockMessageRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		user:         newMockUserRepo(),
		comment:      newMockCommentRepo(),
		reaction:     newMockReactionRepo(),
		notification: newMockNotificationRepo(),
	}
	m.jamPost = newMockJamPostRepo(m.user)
	m.comment.users = m.user
	m.message = &mockMessageRepo{messages: make(map[uint]*model.Message), users: m.user}
	m.conversation = &mockConversationRepo{convs: make(map[uint]*model.Conversation), users: m.user, messages: m.message}

	repo := &repository.Repository{
		User:         m.user,
		JamPost:      m.jamPost,
		Comment:      m.comment,
		Reaction:     m.reaction,
		Notification: m.notification,
		Conversation: m.conversation,
		Message:      m.message,
	}
	return repo, m
}

func testProximityConfig() *config.ProximityConfig {
	return &config.ProximityConfig{DefaultRadius: 5000, MaxRadius: 100000}
}

var testLogger = zap.NewNop()

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uint) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, search string, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if search != "" && !strings.Contains(u.Name, search) && !strings.Contains(u.Email, search) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var all []model.User
	for _, u := range m.users {
		if u.Role == role {
			all = append(all, *u)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all, nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// ── Mock JamPostRepository ──

type mockJamPostRepo struct {
	posts  map[uint]*model.JamPost
	users  *mockUserRepo
	nextID uint
	getErr error // 非空时 GetByID 直接返回该错误
}

func newMockJamPostRepo(users *mockUserRepo) *mockJamPostRepo {
	return &mockJamPostRepo{posts: make(map[uint]*model.JamPost), users: users}
}

// seed 直接写入一条上报，返回其 ID
func (m *mockJamPostRepo) seed(userID uint, lat, lon float64, level string) uint {
	_ = m.Create(context.Background(), &model.JamPost{UserID: userID, Latitude: lat, Longitude: lon, Level: level})
	return m.nextID
}

func (m *mockJamPostRepo) Create(_ context.Context, post *model.JamPost) error {
	m.nextID++
	post.ID = m.nextID
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.UpdatedAt = post.CreatedAt
	cp := *post
	cp.User = nil
	m.posts[post.ID] = &cp
	return nil
}

func (m *mockJamPostRepo) GetByID(_ context.Context, id uint) (*model.JamPost, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.withUser(p), nil
}

func (m *mockJamPostRepo) List(_ context.Context, filter repository.JamPostFilter, offset, limit int) ([]model.JamPost, int64, error) {
	var all []model.JamPost
	for _, p := range m.posts {
		if filter.Level != "" && p.Level != filter.Level {
			continue
		}
		if filter.Search != "" && (p.Note == nil || !strings.Contains(*p.Note, filter.Search)) {
			continue
		}
		if filter.Since != nil && p.CreatedAt.Before(*filter.Since) {
			continue
		}
		all = append(all, *m.withUser(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockJamPostRepo) Update(_ context.Context, post *model.JamPost) error {
	cp := *post
	cp.User = nil
	m.posts[post.ID] = &cp
	return nil
}

func (m *mockJamPostRepo) Delete(_ context.Context, id uint) error {
	delete(m.posts, id)
	return nil
}

func (m *mockJamPostRepo) Count(_ context.Context, since *time.Time) (int64, error) {
	var n int64
	for _, p := range m.posts {
		if since == nil || !p.CreatedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}

func (m *mockJamPostRepo) CountByLevel(_ context.Context) ([]repository.LevelCount, error) {
	counts := map[string]int64{}
	for _, p := range m.posts {
		counts[p.Level]++
	}
	var rows []repository.LevelCount
	for _, l := range model.JamLevels {
		if counts[l] > 0 {
			rows = append(rows, repository.LevelCount{Level: l, Count: counts[l]})
		}
	}
	return rows, nil
}

func (m *mockJamPostRepo) withUser(p *model.JamPost) *model.JamPost {
	cp := *p
	if u, ok := m.users.users[p.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp
}

// ── Mock CommentRepository ──

type mockCommentRepo struct {
	comments map[uint]*model.Comment
	users    *mockUserRepo
	nextID   uint
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[uint]*model.Comment)}
}

func (m *mockCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	m.nextID++
	comment.ID = m.nextID
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	cp := *comment
	m.comments[comment.ID] = &cp
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id uint) (*model.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	if m.users != nil {
		if u, ok := m.users.users[c.UserID]; ok {
			uc := *u
			cp.User = &uc
		}
	}
	return &cp, nil
}

func (m *mockCommentRepo) ListByJamPost(_ context.Context, jamPostID uint, offset, limit int) ([]model.Comment, int64, error) {
	var all []model.Comment
	for _, c := range m.comments {
		if c.JamPostID == jamPostID {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, offset, limit), int64(len(all)), nil
}

func (m *mockCommentRepo) Update(_ context.Context, comment *model.Comment) error {
	if c, ok := m.comments[comment.ID]; ok {
		c.Content = comment.Content
	}
	return nil
}

func (m *mockCommentRepo) Delete(_ context.Context, id uint) error {
	delete(m.comments, id)
	return nil
}

func (m *mockCommentRepo) CountByJamPosts(_ context.Context, jamPostIDs []uint) (map[uint]int64, error) {
	result := make(map[uint]int64)
	for _, id := range jamPostIDs {
		for _, c := range m.comments {
			if c.JamPostID == id {
				result[id]++
			}
		}
	}
	return result, nil
}

func (m *mockCommentRepo) Count(_ context.Context, since *time.Time) (int64, error) {
	var n int64
	for _, c := range m.comments {
		if since == nil || !c.CreatedAt.Before(*since) {
			n++
		}
	}
	return n, nil
}

// ── Mock ReactionRepository ──

type reactionKey struct{ userID, jamPostID uint }

type mockReactionRepo struct {
	reactions map[reactionKey]*model.Reaction
}

func newMockReactionRepo() *mockReactionRepo {
	return &mockReactionRepo{reactions: make(map[reactionKey]*model.Reaction)}
}

func (m *mockReactionRepo) Upsert(_ context.Context, reaction *model.Reaction) error {
	key := reactionKey{reaction.UserID, reaction.JamPostID}
	if existing, ok := m.reactions[key]; ok {
		existing.ReactionType = reaction.ReactionType
		return nil
	}
	cp := *reaction
	m.reactions[key] = &cp
	return nil
}

func (m *mockReactionRepo) GetByUserAndJamPost(_ context.Context, userID, jamPostID uint) (*model.Reaction, error) {
	if r, ok := m.reactions[reactionKey{userID, jamPostID}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReactionRepo) Delete(_ context.Context, userID, jamPostID uint) error {
	delete(m.reactions, reactionKey{userID, jamPostID})
	return nil
}

func (m *mockReactionRepo) CountsByJamPosts(_ context.Context, jamPostIDs []uint) (map[uint]map[string]int64, error) {
	result := make(map[uint]map[string]int64)
	for _, id := range jamPostIDs {
		for key, r := range m.reactions {
			if key.jamPostID != id {
				continue
			}
			if result[id] == nil {
				result[id] = make(map[string]int64)
			}
			result[id][r.ReactionType]++
		}
	}
	return result, nil
}

func (m *mockReactionRepo) UserReactions(_ context.Context, userID uint, jamPostIDs []uint) (map[uint]string, error) {
	result := make(map[uint]string)
	for _, id := range jamPostIDs {
		if r, ok := m.reactions[reactionKey{userID, id}]; ok {
			result[id] = r.ReactionType
		}
	}
	return result, nil
}

func (m *mockReactionRepo) Count(_ context.Context) (int64, error) {
	return int64(len(m.reactions)), nil
}

func (m *mockReactionRepo) CountByType(_ context.Context) ([]repository.TypeCount, error) {
	counts := map[string]int64{}
	for _, r := range m.reactions {
		counts[r.ReactionType]++
	}
	var rows []repository.TypeCount
	for _, t := range model.ReactionTypes {
		if counts[t] > 0 {
			rows = append(rows, repository.TypeCount{Type: t, Count: counts[t]})
		}
	}
	return rows, nil
}

// ── Mock NotificationRepository ──

// mockNotificationRepo 模拟 (user_id, jam_post_id, type) 唯一约束，jam_post_id 为空也视为同一键
type mockNotificationRepo struct {
	items     map[uint]*model.Notification
	nextID    uint
	writes    int   // 实际插入次数
	createErr error // 非空时插入直接失败
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{items: make(map[uint]*model.Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.conflict(n) != nil {
		return gorm.ErrDuplicatedKey
	}
	m.insert(n)
	return nil
}

func (m *mockNotificationRepo) CreateIfAbsent(_ context.Context, n *model.Notification) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	if existing := m.conflict(n); existing != nil {
		*n = *existing
		return false, nil
	}
	m.insert(n)
	return true, nil
}

func (m *mockNotificationRepo) FindOne(_ context.Context, filter model.NotificationFilter) (*model.Notification, error) {
	for _, n := range m.sorted(false) {
		if matchNotification(n, filter) {
			cp := *n
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) List(_ context.Context, filter model.NotificationFilter) ([]model.Notification, error) {
	var result []model.Notification
	for _, n := range m.sorted(true) {
		if matchNotification(n, filter) {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) Count(_ context.Context, filter model.NotificationFilter) (int64, error) {
	var total int64
	for _, n := range m.items {
		if matchNotification(n, filter) {
			total++
		}
	}
	return total, nil
}

func (m *mockNotificationRepo) Update(_ context.Context, n *model.Notification) error {
	stored, ok := m.items[n.ID]
	if !ok || stored.UserID != n.UserID {
		return nil
	}
	if other := m.conflict(n); other != nil && other.ID != n.ID {
		return gorm.ErrDuplicatedKey
	}
	stored.Message = n.Message
	stored.Type = n.Type
	stored.IsRead = n.IsRead
	stored.Distance = n.Distance
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID uint) (int64, error) {
	var updated int64
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, n *model.Notification) error {
	if stored, ok := m.items[n.ID]; ok && stored.UserID == n.UserID {
		delete(m.items, n.ID)
	}
	return nil
}

func (m *mockNotificationRepo) insert(n *model.Notification) {
	m.nextID++
	m.writes++
	n.ID = m.nextID
	n.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	n.UpdatedAt = n.CreatedAt
	cp := *n
	cp.JamPost = nil
	m.items[n.ID] = &cp
}

func (m *mockNotificationRepo) conflict(n *model.Notification) *model.Notification {
	for _, existing := range m.items {
		if existing.UserID == n.UserID && sameJamPost(existing.JamPostID, n.JamPostID) && existing.Type == n.Type {
			return existing
		}
	}
	return nil
}

func sameJamPost(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *mockNotificationRepo) sorted(newestFirst bool) []*model.Notification {
	list := make([]*model.Notification, 0, len(m.items))
	for _, n := range m.items {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool {
		if newestFirst {
			return list[i].ID > list[j].ID
		}
		return list[i].ID < list[j].ID
	})
	return list
}

func matchNotification(n *model.Notification, f model.NotificationFilter) bool {
	if n.UserID != f.UserID {
		return false
	}
	if f.ID != nil && n.ID != *f.ID {
		return false
	}
	if f.JamPostID != nil && (n.JamPostID == nil || *n.JamPostID != *f.JamPostID) {
		return false
	}
	if f.NoJamPost && n.JamPostID != nil {
		return false
	}
	if f.Type != nil && n.Type != *f.Type {
		return false
	}
	if f.IsRead != nil && n.IsRead != *f.IsRead {
		return false
	}
	return true
}

// ── Mock ConversationRepository ──

type mockConversationRepo struct {
	convs    map[uint]*model.Conversation
	users    *mockUserRepo
	messages *mockMessageRepo
	nextID   uint
}

func (m *mockConversationRepo) Create(_ context.Context, conv *model.Conversation) error {
	m.nextID++
	conv.ID = m.nextID
	conv.CreatedAt = time.Now()
	conv.UpdatedAt = conv.CreatedAt
	cp := *conv
	m.convs[conv.ID] = &cp
	return nil
}

func (m *mockConversationRepo) withUsers(c *model.Conversation) model.Conversation {
	cp := *c
	if u, ok := m.users.users[c.User1ID]; ok {
		uc := *u
		cp.User1 = &uc
	}
	if u, ok := m.users.users[c.User2ID]; ok {
		uc := *u
		cp.User2 = &uc
	}
	return cp
}

func (m *mockConversationRepo) GetByID(_ context.Context, id uint) (*model.Conversation, error) {
	c, ok := m.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withUsers(c)
	return &cp, nil
}

func (m *mockConversationRepo) GetWithMessages(ctx context.Context, id uint) (*model.Conversation, error) {
	conv, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Messages, _ = m.messages.ListByConversation(ctx, id)
	return conv, nil
}

func (m *mockConversationRepo) List(ctx context.Context, userID *uint) ([]model.Conversation, error) {
	var all []model.Conversation
	for _, c := range m.convs {
		if userID != nil && !c.HasParticipant(*userID) {
			continue
		}
		cp := m.withUsers(c)
		if msgs, _ := m.messages.ListByConversation(ctx, c.ID); len(msgs) > 0 {
			cp.Messages = msgs[len(msgs)-1:]
		}
		all = append(all, cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all, nil
}

func (m *mockConversationRepo) FindBetween(_ context.Context, a, b, excludeID uint) (*model.Conversation, error) {
	for _, c := range m.convs {
		if c.ID == excludeID {
			continue
		}
		if (c.User1ID == a && c.User2ID == b) || (c.User1ID == b && c.User2ID == a) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockConversationRepo) Update(_ context.Context, conv *model.Conversation) error {
	if c, ok := m.convs[conv.ID]; ok {
		c.User1ID, c.User2ID = conv.User1ID, conv.User2ID
	}
	return nil
}

func (m *mockConversationRepo) Delete(_ context.Context, id uint) error {
	for mid, msg := range m.messages.messages {
		if msg.ConversationID == id {
			delete(m.messages.messages, mid)
		}
	}
	delete(m.convs, id)
	return nil
}

// ── Mock MessageRepository ──

type mockMessageRepo struct {
	messages map[uint]*model.Message
	users    *mockUserRepo
	nextID   uint
}

func (m *mockMessageRepo) Create(_ context.Context, msg *model.Message) error {
	m.nextID++
	msg.ID = m.nextID
	msg.CreatedAt = time.Now()
	msg.UpdatedAt = msg.CreatedAt
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *mockMessageRepo) withSender(msg *model.Message) model.Message {
	cp := *msg
	if u, ok := m.users.users[msg.SenderID]; ok {
		uc := *u
		cp.Sender = &uc
	}
	return cp
}

func (m *mockMessageRepo) GetByID(_ context.Context, id uint) (*model.Message, error) {
	msg, ok := m.messages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.withSender(msg)
	return &cp, nil
}

func (m *mockMessageRepo) ListByConversation(_ context.Context, conversationID uint) ([]model.Message, error) {
	var all []model.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			all = append(all, m.withSender(msg))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *mockMessageRepo) Update(_ context.Context, msg *model.Message) error {
	if stored, ok := m.messages[msg.ID]; ok {
		stored.Content, stored.Image, stored.MessageType = msg.Content, msg.Image, msg.MessageType
	}
	return nil
}

func (m *mockMessageRepo) Delete(_ context.Context, id uint) error {
	delete(m.messages, id)
	return nil
}

func paginate[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
