// Package bot is the Discord transport: it turns slash-prefixed messages
// into commands, button clicks into dialogue callbacks, and implements
// the outbound message surface the dialogue engine draws on.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/splitbot/splitbot/internal/dialogue"
)

type Bot struct {
	session  *discordgo.Session
	registry *Registry
	engine   *dialogue.Engine
}

func New(token string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	bot := &Bot{session: session}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	return bot, nil
}

// Bind attaches the command registry and the dialogue engine. Must be
// called before Start.
func (b *Bot) Bind(registry *Registry, engine *dialogue.Engine) {
	b.registry = registry
	b.engine = engine
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	log.Println("Discord bot is running")
	return nil
}

func (b *Bot) Stop() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("%s is connected!", event.User.Username)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bot messages
	if m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, "/") || len(content) < 2 {
		return
	}

	fields := strings.Fields(content)
	name := strings.TrimPrefix(fields[0], "/")
	ev := Event{
		ChatID:   m.ChannelID,
		UserID:   m.Author.ID,
		Username: m.Author.Username,
		Args:     fields[1:],
	}

	if err := b.registry.Dispatch(context.Background(), name, ev); err != nil {
		log.Printf("bot: command /%s failed in chat %s: %v", name, m.ChannelID, err)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	// Ack the click; the engine edits the message afterwards.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.Printf("bot: failed to ack interaction in chat %s: %v", i.ChannelID, err)
	}

	payload := i.MessageComponentData().CustomID
	if err := b.engine.HandleCallback(context.Background(), i.ChannelID, payload); err != nil {
		log.Printf("bot: callback failed in chat %s: %v", i.ChannelID, err)
	}
}

// SendText implements dialogue.Transport.
func (b *Bot) SendText(chatID, text string) error {
	_, err := b.session.ChannelMessageSend(chatID, text)
	return err
}

// SendButtons implements dialogue.Transport.
func (b *Bot) SendButtons(chatID, text string, rows [][]dialogue.Button) (string, error) {
	msg, err := b.session.ChannelMessageSendComplex(chatID, &discordgo.MessageSend{
		Content:    text,
		Components: componentRows(rows),
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// EditText implements dialogue.Transport. Replacing the content with an
// empty component list strips the buttons from the message.
func (b *Bot) EditText(chatID, messageID, text string) error {
	_, err := b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    chatID,
		ID:         messageID,
		Content:    &text,
		Components: []discordgo.MessageComponent{},
	})
	return err
}

// EditButtons implements dialogue.Transport.
func (b *Bot) EditButtons(chatID, messageID, text string, rows [][]dialogue.Button) error {
	_, err := b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    chatID,
		ID:         messageID,
		Content:    &text,
		Components: componentRows(rows),
	})
	return err
}

func componentRows(rows [][]dialogue.Button) []discordgo.MessageComponent {
	components := make([]discordgo.MessageComponent, 0, len(rows))
	for _, row := range rows {
		buttons := make([]discordgo.MessageComponent, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, discordgo.Button{
				Label:    btn.Label,
				Style:    discordgo.SecondaryButton,
				CustomID: btn.Payload,
			})
		}
		components = append(components, discordgo.ActionsRow{Components: buttons})
	}
	return components
}
