package bot

import (
	"context"
	"strings"
	"time"

	"babelflag/internal/config"
	"babelflag/internal/models"
	"babelflag/internal/services"
	"babelflag/internal/store"
	"babelflag/internal/translator"
	"babelflag/internal/types"
	"babelflag/internal/utils"

	"github.com/alitto/pond/v2"
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// threadAutoArchiveMinutes keeps translation threads around for a day.
const threadAutoArchiveMinutes = 1440

// Bot owns the gateway connection and dispatches events onto the worker
// pool. All Discord calls go through the Session interface so the event
// logic is testable without a live gateway.
type Bot struct {
	session  *discordgo.Session
	api      Session
	defaults *config.DefaultsStore
	guilds   *services.GuildConfigService
	logs     *services.TranslationLogService
	cascade  *translator.Cascade
	dedup    *Deduper
	game     *GuessGame
	pool     pond.Pool
	prefix   string
}

// NewBot builds the bot and registers its gateway handlers. The session is
// not opened until Start.
func NewBot(
	configManager types.ConfigManager,
	defaults *config.DefaultsStore,
	guilds *services.GuildConfigService,
	logs *services.TranslationLogService,
	cascade *translator.Cascade,
	st store.Store,
) (*Bot, error) {
	cfg := configManager.GetDiscordConfig()

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentMessageContent

	b := &Bot{
		session:  session,
		api:      session,
		defaults: defaults,
		guilds:   guilds,
		logs:     logs,
		cascade:  cascade,
		dedup:    NewDeduper(st),
		game:     NewGuessGame(st, cascade),
		pool:     pond.NewPool(cfg.WorkerPool),
		prefix:   cfg.CommandPrefix,
	}

	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onReactionAdd)
	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return err
	}
	logrus.WithField("prefix", b.prefix).Info("Discord bot connected")
	return nil
}

// Stop drains the worker pool and closes the gateway connection.
func (b *Bot) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		b.pool.StopAndWait()
		close(done)
	}()
	select {
	case <-done:
		logrus.Info("Bot worker pool drained.")
	case <-ctx.Done():
		logrus.Warn("Bot worker pool drain timed out.")
	}
	if err := b.session.Close(); err != nil {
		logrus.WithError(err).Warn("Error closing Discord session")
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if strings.HasPrefix(m.Content, b.prefix) {
		ev := CommandEvent{
			GuildID:   m.GuildID,
			ChannelID: m.ChannelID,
			MessageID: m.ID,
			UserID:    m.Author.ID,
			Content:   m.Content,
		}
		b.pool.Submit(func() { b.HandleCommand(context.Background(), ev) })
		return
	}
	guildID, channelID, messageID := m.GuildID, m.ChannelID, m.ID
	b.pool.Submit(func() { b.SeedReactions(guildID, channelID, messageID) })
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if s.State != nil && s.State.User != nil && r.UserID == s.State.User.ID {
		return
	}
	if r.Member != nil && r.Member.User != nil && r.Member.User.Bot {
		return
	}
	if r.GuildID == "" {
		return
	}
	ev := newReactionEvent(r)
	b.pool.Submit(func() { b.ProcessReaction(context.Background(), ev) })
}

// SeedReactions adds one flag reaction per enabled language, in priority
// order, capped at the platform reaction limit.
func (b *Bot) SeedReactions(guildID, channelID, messageID string) {
	settings, err := b.guilds.GetOrCreate(guildID)
	if err != nil {
		logrus.WithError(err).WithField("guild_id", guildID).Error("Failed to load guild config")
		return
	}

	langs := b.defaults.SortByPriority(settings.Languages)
	globals := b.defaults.Get()
	seen := make(map[string]bool, len(langs))
	for _, lang := range langs {
		emoji := FlagForLanguage(lang, settings, globals)
		if seen[emoji] {
			continue
		}
		seen[emoji] = true
		if err := b.api.MessageReactionAdd(channelID, messageID, emoji); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"channel_id": channelID,
				"message_id": messageID,
				"emoji":      emoji,
			}).Debug("Failed to add flag reaction")
		}
	}
}

// ProcessReaction runs the full reaction-to-translation flow for one event.
func (b *Bot) ProcessReaction(ctx context.Context, ev ReactionEvent) {
	log := logrus.WithFields(logrus.Fields{
		"guild_id":   ev.GuildID,
		"message_id": ev.MessageID,
		"emoji":      ev.Emoji,
		"trace_id":   ev.TraceID,
	})

	settings, err := b.guilds.GetOrCreate(ev.GuildID)
	if err != nil {
		log.WithError(err).Error("Failed to load guild config")
		return
	}
	lang, ok := LanguageForEmoji(ev.Emoji, settings, b.defaults.Get())
	if !ok {
		return
	}
	log = log.WithField("target_lang", lang)

	if !b.dedup.TryAcquire(ev.MessageID, lang) {
		log.Debug("Translation already in flight, skipping")
		return
	}
	defer b.dedup.Release(ev.MessageID, lang)

	msg, err := b.api.ChannelMessage(ev.ChannelID, ev.MessageID)
	if err != nil {
		log.WithError(err).Warn("Failed to fetch reacted message")
		return
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" || (msg.Author != nil && msg.Author.Bot) || strings.HasPrefix(content, b.prefix) {
		return
	}

	targetChannel := ev.ChannelID
	inline := settings.Mode == models.ModeInline
	if !inline {
		threadID, err := b.ensureThread(ev.ChannelID, ev.MessageID, msg, content)
		if err != nil {
			log.WithError(err).Error("Failed to create translation thread")
			return
		}
		targetChannel = threadID
	}

	if !b.shouldTranslate(ev, targetChannel, inline) {
		log.Debug("Translation already posted, skipping")
		return
	}

	res := b.cascade.Translate(ctx, translator.Request{
		Text:       content,
		TargetLang: lang,
		GuildID:    ev.GuildID,
		Dictionary: settings.Dictionary,
		TraceID:    ev.TraceID,
	})

	text := res.Text
	if !res.Success {
		text = res.Reason
	}
	b.postChunks(targetChannel, ev, inline, SplitMessage(Marker(ev.Emoji), text, MessageCharLimit))
	b.logs.Record(ev.GuildID, ev.MessageID, lang, res.Provider, res.Success)
}

// shouldTranslate applies the history-based dedup gate. In thread mode all
// thread entries count; in inline mode only replies to the reacted message.
func (b *Bot) shouldTranslate(ev ReactionEvent, targetChannel string, inline bool) bool {
	msgs, err := b.api.ChannelMessages(targetChannel, historyScanLimit, "", "", "")
	if err != nil {
		logrus.WithError(err).WithField("channel_id", targetChannel).Warn("Failed to scan history, translating anyway")
		return true
	}
	var recent []string
	for _, m := range msgs {
		if inline {
			if m.MessageReference == nil || m.MessageReference.MessageID != ev.MessageID {
				continue
			}
		}
		recent = append(recent, m.Content)
	}
	return b.dedup.ShouldAttempt(ev.Emoji, recent)
}

// ensureThread returns the message's thread, creating one when absent. A
// creation race with another worker resolves by re-fetching the message.
func (b *Bot) ensureThread(channelID, messageID string, msg *discordgo.Message, content string) (string, error) {
	if msg.Thread != nil {
		return msg.Thread.ID, nil
	}
	name := utils.TruncateString(content, 50)
	if name == "" {
		name = "Translations"
	}
	thread, err := b.api.MessageThreadStartComplex(channelID, messageID, &discordgo.ThreadStart{
		Name:                name,
		AutoArchiveDuration: threadAutoArchiveMinutes,
	})
	if err == nil {
		return thread.ID, nil
	}

	refetched, ferr := b.api.ChannelMessage(channelID, messageID)
	if ferr == nil && refetched.Thread != nil {
		return refetched.Thread.ID, nil
	}
	return "", err
}

// postChunks sends the translation. In inline mode the first chunk replies
// to the source message so readers can trace it back.
func (b *Bot) postChunks(targetChannel string, ev ReactionEvent, inline bool, chunks []string) {
	for i, chunk := range chunks {
		var err error
		if inline && i == 0 {
			_, err = b.api.ChannelMessageSendReply(targetChannel, chunk, &discordgo.MessageReference{
				MessageID: ev.MessageID,
				ChannelID: ev.ChannelID,
				GuildID:   ev.GuildID,
			})
		} else {
			_, err = b.api.ChannelMessageSend(targetChannel, chunk)
		}
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"channel_id": targetChannel,
				"trace_id":   ev.TraceID,
			}).Error("Failed to post translation chunk")
			return
		}
	}
}

// Backfill seeds flag reactions on the channel's recent messages. The limit
// is capped at the history scan ceiling.
func (b *Bot) Backfill(guildID, channelID string, limit int) (int, error) {
	if limit <= 0 || limit > historyScanLimit {
		limit = historyScanLimit
	}
	msgs, err := b.api.ChannelMessages(channelID, limit, "", "", "")
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range msgs {
		if m.Author == nil || m.Author.Bot || strings.HasPrefix(m.Content, b.prefix) || strings.TrimSpace(m.Content) == "" {
			continue
		}
		b.SeedReactions(guildID, channelID, m.ID)
		count++
	}
	return count, nil
}

// windowForStats is the lookback used by the stats command.
func windowForStats() time.Time {
	return time.Now().UTC().AddDate(0, 0, -30)
}
