package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// ReactionEvent is the normalized form of a reaction, carrying only what the
// translation path needs. Raw gateway events omit message content, so the
// handler re-fetches the message by ID.
type ReactionEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	UserID    string
	Emoji     string
	TraceID   string
}

// newReactionEvent normalizes a gateway reaction-add event and assigns it a
// trace ID for log correlation.
func newReactionEvent(r *discordgo.MessageReactionAdd) ReactionEvent {
	return ReactionEvent{
		GuildID:   r.GuildID,
		ChannelID: r.ChannelID,
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.APIName(),
		TraceID:   uuid.NewString(),
	}
}
