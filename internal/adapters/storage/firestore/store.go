package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/farum-wellness/internal/domain"
)

type Store struct {
	client *firestore.Client
}

var _ domain.Store = (*Store)(nil)

// NewStore creates a Firestore store for projectID.
// FIRESTORE_EMULATOR_HOST is honoured by the client library.
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) chatsCol() *firestore.CollectionRef {
	return s.client.Collection("chats")
}

func (s *Store) chatDoc(id domain.ChatID) *firestore.DocumentRef {
	return s.chatsCol().Doc(string(id))
}

func (s *Store) messagesCol(chatID domain.ChatID) *firestore.CollectionRef {
	return s.chatDoc(chatID).Collection("messages")
}

func (s *Store) moodsCol() *firestore.CollectionRef {
	return s.client.Collection("mood_entries")
}

func (s *Store) tasksCol() *firestore.CollectionRef {
	return s.client.Collection("tasks")
}

func (s *Store) dayQuery(userID domain.UserID, day domain.DayWindow) firestore.Query {
	return s.tasksCol().
		Where("user_id", "==", string(userID)).
		Where("created_at", ">=", day.Start.UTC()).
		Where("created_at", "<", day.End.UTC())
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// collect drains iter and decodes each snapshot with decode.
func collect[T any](iter *firestore.DocumentIterator, decode func(*firestore.DocumentSnapshot) (T, error)) ([]T, error) {
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		v, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// deleteAll removes every document matched by q through a BulkWriter.
func (s *Store) deleteAll(ctx context.Context, q firestore.Query) error {
	refs, err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) (*firestore.DocumentRef, error) {
		return snap.Ref, nil
	})
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return err
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil && !notFound(err) {
			return err
		}
	}
	return nil
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type chatDoc struct {
	UserID    string    `firestore:"user_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

type messageDoc struct {
	ChatID    string    `firestore:"chat_id"`
	Role      string    `firestore:"role"`
	Content   string    `firestore:"content"`
	CreatedAt time.Time `firestore:"created_at"`
}

type moodDoc struct {
	UserID    string    `firestore:"user_id"`
	Score     int       `firestore:"score"`
	Note      string    `firestore:"note"`
	CreatedAt time.Time `firestore:"created_at"`
}

type taskDoc struct {
	UserID    string    `firestore:"user_id"`
	Title     string    `firestore:"title"`
	Completed bool      `firestore:"completed"`
	CreatedAt time.Time `firestore:"created_at"`
}

func decodeChat(snap *firestore.DocumentSnapshot) (*domain.Chat, error) {
	var doc chatDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode chatDoc: %w", err)
	}
	return &domain.Chat{
		ID:        domain.ChatID(snap.Ref.ID),
		UserID:    domain.UserID(doc.UserID),
		CreatedAt: doc.CreatedAt,
	}, nil
}

func decodeMessage(snap *firestore.DocumentSnapshot) (*domain.Message, error) {
	var doc messageDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode messageDoc: %w", err)
	}
	return &domain.Message{
		ID:        domain.MessageID(snap.Ref.ID),
		ChatID:    domain.ChatID(doc.ChatID),
		Role:      domain.Role(doc.Role),
		Content:   doc.Content,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func decodeMood(snap *firestore.DocumentSnapshot) (*domain.MoodEntry, error) {
	var doc moodDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode moodDoc: %w", err)
	}
	return &domain.MoodEntry{
		ID:        domain.MoodEntryID(snap.Ref.ID),
		UserID:    domain.UserID(doc.UserID),
		Score:     doc.Score,
		Note:      doc.Note,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func decodeTask(snap *firestore.DocumentSnapshot) (*domain.Task, error) {
	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode taskDoc: %w", err)
	}
	return &domain.Task{
		ID:        domain.TaskID(snap.Ref.ID),
		UserID:    domain.UserID(doc.UserID),
		Title:     doc.Title,
		Completed: doc.Completed,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// ─────────────────────────────────────────
// ChatStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateChat(ctx context.Context, chat *domain.Chat) error {
	doc := chatDoc{
		UserID:    string(chat.UserID),
		CreatedAt: chat.CreatedAt.UTC(),
	}
	if _, err := s.chatDoc(chat.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore CreateChat: %w", err)
	}
	return nil
}

func (s *Store) GetChat(ctx context.Context, id domain.ChatID) (*domain.Chat, error) {
	snap, err := s.chatDoc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrChatNotFound
		}
		return nil, fmt.Errorf("firestore GetChat: %w", err)
	}
	return decodeChat(snap)
}

func (s *Store) LatestChat(ctx context.Context, userID domain.UserID) (*domain.Chat, error) {
	q := s.chatsCol().
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc).
		Limit(1)

	chats, err := collect(q.Documents(ctx), decodeChat)
	if err != nil {
		return nil, fmt.Errorf("firestore LatestChat: %w", err)
	}
	if len(chats) == 0 {
		return nil, domain.ErrChatNotFound
	}
	return chats[0], nil
}

// DeleteChat removes the messages subcollection before the chat document.
func (s *Store) DeleteChat(ctx context.Context, id domain.ChatID) error {
	if _, err := s.chatDoc(id).Get(ctx); err != nil {
		if notFound(err) {
			return domain.ErrChatNotFound
		}
		return fmt.Errorf("firestore DeleteChat: %w", err)
	}
	if err := s.deleteAll(ctx, s.messagesCol(id).Query); err != nil {
		return fmt.Errorf("firestore DeleteChat messages: %w", err)
	}
	if _, err := s.chatDoc(id).Delete(ctx); err != nil {
		return fmt.Errorf("firestore DeleteChat: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	doc := messageDoc{
		ChatID:    string(msg.ChatID),
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt.UTC(),
	}
	if _, err := s.messagesCol(msg.ChatID).Doc(string(msg.ID)).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) RecentMessages(ctx context.Context, chatID domain.ChatID, limit int) ([]*domain.Message, error) {
	q := s.messagesCol(chatID).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	out, err := collect(q.Documents(ctx), decodeMessage)
	if err != nil {
		return nil, fmt.Errorf("firestore RecentMessages: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// MoodStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMoodEntry(ctx context.Context, entry *domain.MoodEntry) error {
	if !domain.ValidMoodScore(entry.Score) {
		return fmt.Errorf("firestore AppendMoodEntry: score %d out of range", entry.Score)
	}
	doc := moodDoc{
		UserID:    string(entry.UserID),
		Score:     entry.Score,
		Note:      entry.Note,
		CreatedAt: entry.CreatedAt.UTC(),
	}
	if _, err := s.moodsCol().Doc(string(entry.ID)).Create(ctx, doc); err != nil {
		return fmt.Errorf("firestore AppendMoodEntry: %w", err)
	}
	return nil
}

func (s *Store) RecentMoodEntries(ctx context.Context, userID domain.UserID, limit int) ([]*domain.MoodEntry, error) {
	q := s.moodsCol().
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	out, err := collect(q.Documents(ctx), decodeMood)
	if err != nil {
		return nil, fmt.Errorf("firestore RecentMoodEntries: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// TaskStore implementation
// ─────────────────────────────────────────

// ReplaceTasksForDay runs the delete and the inserts in one transaction.
func (s *Store) ReplaceTasksForDay(ctx context.Context, userID domain.UserID, day domain.DayWindow, tasks []*domain.Task) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(s.dayQuery(userID, day)).GetAll()
		if err != nil {
			return err
		}
		for _, snap := range existing {
			if err := tx.Delete(snap.Ref); err != nil {
				return err
			}
		}
		for _, t := range tasks {
			doc := taskDoc{
				UserID:    string(t.UserID),
				Title:     t.Title,
				Completed: t.Completed,
				CreatedAt: t.CreatedAt.UTC(),
			}
			if err := tx.Create(s.tasksCol().Doc(string(t.ID)), doc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("firestore ReplaceTasksForDay: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, userID domain.UserID, day domain.DayWindow) ([]*domain.Task, error) {
	q := s.dayQuery(userID, day).OrderBy("created_at", firestore.Asc)
	out, err := collect(q.Documents(ctx), decodeTask)
	if err != nil {
		return nil, fmt.Errorf("firestore ListTasks: %w", err)
	}
	return out, nil
}

func (s *Store) GetTask(ctx context.Context, id domain.TaskID) (*domain.Task, error) {
	snap, err := s.tasksCol().Doc(string(id)).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("firestore GetTask: %w", err)
	}
	return decodeTask(snap)
}

func (s *Store) SetTaskCompleted(ctx context.Context, id domain.TaskID, completed bool) error {
	_, err := s.tasksCol().Doc(string(id)).Update(ctx, []firestore.Update{
		{Path: "completed", Value: completed},
	})
	if err != nil {
		if notFound(err) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("firestore SetTaskCompleted: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// UserDataPurger implementation
// ─────────────────────────────────────────

func (s *Store) PurgeUser(ctx context.Context, userID domain.UserID) error {
	chats, err := collect(s.chatsCol().Where("user_id", "==", string(userID)).Documents(ctx), decodeChat)
	if err != nil {
		return fmt.Errorf("firestore PurgeUser chats: %w", err)
	}
	for _, c := range chats {
		if err := s.deleteAll(ctx, s.messagesCol(c.ID).Query); err != nil {
			return fmt.Errorf("firestore PurgeUser messages: %w", err)
		}
	}

	for name, q := range map[string]firestore.Query{
		"chats": s.chatsCol().Where("user_id", "==", string(userID)),
		"moods": s.moodsCol().Where("user_id", "==", string(userID)),
		"tasks": s.tasksCol().Where("user_id", "==", string(userID)),
	} {
		if err := s.deleteAll(ctx, q); err != nil {
			return fmt.Errorf("firestore PurgeUser %s: %w", name, err)
		}
	}
	return nil
}
