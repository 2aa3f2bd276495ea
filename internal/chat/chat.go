// Package chat implements the chatroom service shipped with parley:
// nicknames, emotes, a captive topic prompt, and connect/disconnect
// announcements, all registered on a server.Server.
package chat

import (
	"strings"

	"github.com/avolk/parley/dispatch"
	"github.com/avolk/parley/intercept"
	"github.com/avolk/parley/internal/config"
	"github.com/avolk/parley/server"
	"github.com/avolk/parley/session"
)

// Session attribute keys.
const (
	AttrNick  = "nickname"
	AttrAdmin = "admin"
)

// Help is the command metadata shown by /commands.
type Help struct {
	Usage string
	Desc  string
}

// Chat wires the chatroom commands and hooks onto a server.
type Chat struct {
	srv   *server.Server
	cfg   *config.Config
	topic string

	// history is a ring of recent room lines replayed to joining clients.
	history []string
}

// New registers the chatroom on srv.
func New(srv *server.Server, cfg *config.Config) *Chat {
	c := &Chat{srv: srv, cfg: cfg}
	c.hooks()
	c.commands()
	return c
}

func (c *Chat) hooks() {
	c.srv.Hooks.On(dispatch.EventConnect, func(caller *dispatch.Caller) {
		conn := caller.Conn
		if c.cfg.MOTD != "" {
			c.srv.Notify(conn, c.cfg.MOTD)
		}
		nick := c.cfg.Chat.DefaultNick
		if nick == "" {
			nick = conn.Host()
		}
		conn.SetAttr(AttrNick, nick)
		if c.topic != "" {
			c.srv.Notify(conn, "Topic: %s", c.topic)
		}
		for _, line := range c.history {
			c.srv.Notify(conn, line)
		}
		c.srv.Broadcast("{nick} has connected.", server.Named{"nick": nick})
	})

	c.srv.Hooks.On(dispatch.EventDisconnect, func(caller *dispatch.Caller) {
		c.srv.Broadcast("%s has disconnected.", nickOf(caller.Conn))
	})
}

func (c *Chat) commands() {
	reg := c.srv.Registry

	reg.MustRegister(`^/quit$`, nil, func(caller *dispatch.Caller) error {
		c.srv.Notify(caller.Conn, "Goodbye.")
		c.srv.Disconnect(caller.Conn)
		return nil
	}, Help{Usage: "/quit", Desc: "Disconnect from the server."})

	reg.MustRegister(`^(/commands|\?)$`, nil, func(caller *dispatch.Caller) error {
		cmds := reg.Commands()
		c.srv.Notify(caller.Conn, "Showing help for %d commands.", len(cmds))
		for _, cmd := range cmds {
			if h, ok := cmd.Meta.(Help); ok {
				c.srv.Notify(caller.Conn, "%s  --  %s", h.Usage, h.Desc)
			}
		}
		return nil
	}, Help{Usage: "/commands or ?", Desc: "Show all commands."})

	reg.MustRegister(`^/(nick|nickname|name|handle) (?P<nickname>.+)$`, nil, func(caller *dispatch.Caller) error {
		name := strings.TrimSpace(caller.Match.Named("nickname"))
		for _, conn := range c.srv.Dir.Connections() {
			if nickOf(conn) == name {
				return c.srv.Notify(caller.Conn, "That nickname is already taken.")
			}
		}
		c.srv.Broadcast("%s is now known as %s.", nickOf(caller.Conn), name)
		caller.Conn.SetAttr(AttrNick, name)
		return nil
	}, Help{Usage: "/nick <name>", Desc: "Set a nickname."})

	reg.MustRegister(`^/who$`, nil, func(caller *dispatch.Caller) error {
		var nicks []string
		for _, conn := range c.srv.Dir.Connections() {
			nicks = append(nicks, nickOf(conn))
		}
		return c.srv.Notify(caller.Conn, "Connected: %s.", strings.Join(nicks, ", "))
	}, Help{Usage: "/who", Desc: "List connected users."})

	reg.MustRegister(`^/topic$`, nil, func(caller *dispatch.Caller) error {
		reader := &intercept.Reader{
			Prompt: "New topic:",
			Func: func(inner *dispatch.Caller) error {
				c.topic = strings.TrimSpace(inner.Text)
				return c.srv.Broadcast("%s set the topic to: %s", nickOf(inner.Conn), c.topic)
			},
		}
		return reader.Attach(caller.Conn)
	}, Help{Usage: "/topic", Desc: "Set the room topic."})

	reg.MustRegister(`^/ban (?P<host>\S+)$`, dispatch.HasAttr(AttrAdmin), func(caller *dispatch.Caller) error {
		host := caller.Match.Named("host")
		c.srv.Dir.Ban(host)
		return c.srv.Notify(caller.Conn, "Banned %s.", host)
	}, Help{Usage: "/ban <host>", Desc: "Refuse future connections from a host (admins)."})

	reg.MustRegister("^[:,`](?P<action>.+)$", nil, func(caller *dispatch.Caller) error {
		c.room("%s %s", nickOf(caller.Conn), caller.Match.Named("action"))
		return nil
	}, Help{Usage: ":<anything>", Desc: "Emote something."})

	reg.MustRegister(`^.+$`, nil, func(caller *dispatch.Caller) error {
		c.room("%s: %s", nickOf(caller.Conn), caller.Text)
		return nil
	}, Help{Usage: "anything else", Desc: "Say something."})
}

// room broadcasts a chat line and records it for history replay.
func (c *Chat) room(format string, args ...any) {
	line, err := server.Format(format, args...)
	if err != nil {
		return
	}
	if max := c.cfg.Chat.HistorySize; max > 0 {
		c.history = append(c.history, line)
		if len(c.history) > max {
			c.history = c.history[len(c.history)-max:]
		}
	}
	c.srv.Broadcast(line)
}

// Topic returns the current room topic.
func (c *Chat) Topic() string { return c.topic }

func nickOf(conn *session.Conn) string {
	return conn.StringAttr(AttrNick)
}
