package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"babelflag/internal/config"
	"babelflag/internal/models"
	"babelflag/internal/services"
	"babelflag/internal/store"
	"babelflag/internal/translator"

	"github.com/bwmarrin/discordgo"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeSession records Discord API calls and serves canned messages.
type fakeSession struct {
	mu        sync.Mutex
	messages  map[string]*discordgo.Message   // "channel/message" -> message
	history   map[string][]*discordgo.Message // channelID -> recent messages
	sent      map[string][]string             // channelID -> sent contents
	replies   map[string][]string             // channelID -> reply contents
	reactions []string                        // "channel/message/emoji"
	threadErr error
	perms     int64
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		messages: make(map[string]*discordgo.Message),
		history:  make(map[string][]*discordgo.Message),
		sent:     make(map[string][]string),
		replies:  make(map[string][]string),
	}
}

func (f *fakeSession) addMessage(channelID, messageID, content string, bot bool) {
	f.messages[channelID+"/"+messageID] = &discordgo.Message{
		ID:        messageID,
		ChannelID: channelID,
		Content:   content,
		Author:    &discordgo.User{ID: "author-1", Bot: bot},
	}
}

func (f *fakeSession) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[channelID+"/"+messageID]
	if !ok {
		return nil, fmt.Errorf("unknown message %s", messageID)
	}
	return msg, nil
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, _, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.history[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[channelID] = append(f.sent[channelID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) ChannelMessageSendReply(channelID, content string, ref *discordgo.MessageReference, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[channelID] = append(f.replies[channelID], content)
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) MessageReactionAdd(channelID, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, channelID+"/"+messageID+"/"+emojiID)
	return nil
}

func (f *fakeSession) MessageThreadStartComplex(channelID, messageID string, data *discordgo.ThreadStart, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.threadErr != nil {
		return nil, f.threadErr
	}
	threadID := "thread-" + messageID
	if msg, ok := f.messages[channelID+"/"+messageID]; ok {
		msg.Thread = &discordgo.Channel{ID: threadID, Name: data.Name}
	}
	return &discordgo.Channel{ID: threadID, Name: data.Name}, nil
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: channelID}, nil
}

func (f *fakeSession) UserChannelPermissions(_, _ string, _ ...discordgo.RequestOption) (int64, error) {
	return f.perms, nil
}

// scriptedProvider returns canned outcomes in order.
type scriptedProvider struct {
	name     string
	outcomes []translator.Outcome
	calls    int
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Translate(_ context.Context, _, _ string) translator.Outcome {
	i := p.calls
	p.calls++
	if i >= len(p.outcomes) {
		i = len(p.outcomes) - 1
	}
	return p.outcomes[i]
}

func setupBotTest(t *testing.T, outcomes ...translator.Outcome) (*Bot, *fakeSession, *scriptedProvider) {
	t.Helper()

	testName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", testName, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{PrepareStmt: false})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.GuildConfig{}, &models.TranslationLog{}, &models.ProviderUsage{}))

	defaults, err := config.NewDefaultsStore(filepath.Join(t.TempDir(), "defaults.yaml"))
	require.NoError(t, err)

	if len(outcomes) == 0 {
		outcomes = []translator.Outcome{translator.Translated("Hola mundo")}
	}
	provider := &scriptedProvider{name: "Scripted", outcomes: outcomes}

	st := store.NewMemoryStore()
	t.Cleanup(func() { st.Close() })

	logs := services.NewTranslationLogService(db)
	cascade := translator.NewCascade([]translator.Provider{provider}, logs, time.Second)

	fake := newFakeSession()
	b := &Bot{
		api:      fake,
		defaults: defaults,
		guilds:   services.NewGuildConfigService(db, defaults),
		logs:     logs,
		cascade:  cascade,
		dedup:    NewDeduper(st),
		game:     NewGuessGame(st, cascade),
		prefix:   "!bf",
	}
	return b, fake, provider
}

func spanishReaction() ReactionEvent {
	return ReactionEvent{
		GuildID:   "g1",
		ChannelID: "c1",
		MessageID: "m1",
		UserID:    "u1",
		Emoji:     "🇪🇸",
		TraceID:   "trace-1",
	}
}

func TestProcessReactionPostsToThread(t *testing.T) {
	t.Parallel()
	b, fake, _ := setupBotTest(t)
	fake.addMessage("c1", "m1", "Hello world", false)

	b.ProcessReaction(context.Background(), spanishReaction())

	require.Len(t, fake.sent["thread-m1"], 1)
	assert.Equal(t, "🇪🇸: Hola mundo", fake.sent["thread-m1"][0])

	stats, err := b.logs.GuildStats("g1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.Succeeded)
}

func TestProcessReactionIgnoresUnknownEmoji(t *testing.T) {
	t.Parallel()
	b, fake, provider := setupBotTest(t)
	fake.addMessage("c1", "m1", "Hello world", false)

	ev := spanishReaction()
	ev.Emoji = "👍"
	b.ProcessReaction(context.Background(), ev)

	assert.Empty(t, fake.sent)
	assert.Zero(t, provider.calls)
}

func TestProcessReactionSkipsAlreadyTranslated(t *testing.T) {
	t.Parallel()
	b, fake, provider := setupBotTest(t)
	fake.addMessage("c1", "m1", "Hello world", false)
	// Message already has a thread with a posted Spanish translation.
	fake.messages["c1/m1"].Thread = &discordgo.Channel{ID: "thread-m1"}
	fake.history["thread-m1"] = []*discordgo.Message{
		{Content: "🇪🇸: Hola mundo"},
	}

	b.ProcessReaction(context.Background(), spanishReaction())

	assert.Empty(t, fake.sent["thread-m1"])
	assert.Zero(t, provider.calls)
}

func TestProcessReactionRetriesAfterFailure(t *testing.T) {
	t.Parallel()
	b, fake, provider := setupBotTest(t)
	fake.addMessage("c1", "m1", "Hello world", false)
	fake.messages["c1/m1"].Thread = &discordgo.Channel{ID: "thread-m1"}
	fake.history["thread-m1"] = []*discordgo.Message{
		{Content: "🇪🇸: " + translator.FailureMessage},
	}

	b.ProcessReaction(context.Background(), spanishReaction())

	require.Len(t, fake.sent["thread-m1"], 1)
	assert.Equal(t, "🇪🇸: Hola mundo", fake.sent["thread-m1"][0])
	assert.Equal(t, 1, provider.calls)
}

func TestProcessReactionPostsFailureSentinel(t *testing.T) {
	t.Parallel()
	b, fake, _ := setupBotTest(t, translator.Unreachable(nil))
	fake.addMessage("c1", "m1", "Hello world", false)

	b.ProcessReaction(context.Background(), spanishReaction())

	require.Len(t, fake.sent["thread-m1"], 1)
	assert.Equal(t, "🇪🇸: "+translator.FailureMessage, fake.sent["thread-m1"][0])

	stats, err := b.logs.GuildStats("g1", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Failed)
}

func TestProcessReactionInlineMode(t *testing.T) {
	t.Parallel()
	b, fake, _ := setupBotTest(t)
	fake.addMessage("c1", "m1", "Hello world", false)
	require.NoError(t, b.guilds.SetMode("g1", models.ModeInline))

	b.ProcessReaction(context.Background(), spanishReaction())

	require.Len(t, fake.replies["c1"], 1)
	assert.Equal(t, "🇪🇸: Hola mundo", fake.replies["c1"][0])
	assert.Empty(t, fake.sent, "inline mode must not create a thread")
}

func TestProcessReactionIgnoresBotAndCommandMessages(t *testing.T) {
	t.Parallel()
	b, fake, provider := setupBotTest(t)

	fake.addMessage("c1", "m1", "Hello world", true)
	b.ProcessReaction(context.Background(), spanishReaction())

	fake.addMessage("c1", "m2", "!bf list", false)
	ev := spanishReaction()
	ev.MessageID = "m2"
	b.ProcessReaction(context.Background(), ev)

	assert.Empty(t, fake.sent)
	assert.Zero(t, provider.calls)
}

func TestProcessReactionInFlightLockBlocksSecondWorker(t *testing.T) {
	t.Parallel()
	b, fake, provider := setupBotTest(t)
	fake.addMessage("c1", "m1", "Hello world", false)

	require.True(t, b.dedup.TryAcquire("m1", "es"))
	b.ProcessReaction(context.Background(), spanishReaction())

	assert.Empty(t, fake.sent)
	assert.Zero(t, provider.calls)
}

func TestSeedReactionsFollowsPriorityOrder(t *testing.T) {
	t.Parallel()
	b, fake, _ := setupBotTest(t)

	b.SeedReactions("g1", "c1", "m1")

	// Built-in defaults enable en,es,fr,de,ru,pt; priority order starts
	// with the same codes.
	require.Len(t, fake.reactions, 6)
	assert.Equal(t, "c1/m1/🇬🇧", fake.reactions[0])
	assert.Equal(t, "c1/m1/🇪🇸", fake.reactions[1])
}

func TestBackfillSkipsBotsAndCommands(t *testing.T) {
	t.Parallel()
	b, fake, _ := setupBotTest(t)
	fake.history["c1"] = []*discordgo.Message{
		{ID: "m1", Content: "hello", Author: &discordgo.User{ID: "u1"}},
		{ID: "m2", Content: "!bf list", Author: &discordgo.User{ID: "u1"}},
		{ID: "m3", Content: "beep", Author: &discordgo.User{ID: "b1", Bot: true}},
		{ID: "m4", Content: "world", Author: &discordgo.User{ID: "u2"}},
	}

	count, err := b.Backfill("g1", "c1", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestEnsureThreadResolvesCreationRace(t *testing.T) {
	t.Parallel()
	b, fake, _ := setupBotTest(t)
	fake.addMessage("c1", "m1", "Hello world", false)
	// Simulate the race: creation fails but a re-fetch shows the thread
	// another worker just created.
	fake.threadErr = fmt.Errorf("thread already exists")
	fake.messages["c1/m1"].Thread = &discordgo.Channel{ID: "thread-m1"}

	threadID, err := b.ensureThread("c1", "m1", &discordgo.Message{ID: "m1", Content: "Hello world"}, "Hello world")
	require.NoError(t, err)
	assert.Equal(t, "thread-m1", threadID)
}
