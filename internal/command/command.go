// Package command implements the /trappedtnt command and its tab completion.
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/internal/itemtag"
	"github.com/sanscraft/trappedtnt/internal/util"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
)

// Name is the top-level command.
const Name = "trappedtnt"

// Permission nodes.
const (
	PermAdmin = "trappedtnt.admin"
	PermGive  = "trappedtnt.give"
)

// ErrInvalidAmount is returned by ParseAmount for anything outside 1..64.
var ErrInvalidAmount = errors.New("amount must be between 1 and 64")

var amountSuggestions = []string{"1", "2", "4", "8", "16", "32", "64"}

// Players looks up online players.
type Players interface {
	Player(name string) (host.Player, bool)
	OnlinePlayers() []host.Player
}

// Dependencies holds everything the command needs.
type Dependencies struct {
	Players Players
	Tagger  *itemtag.Tagger
	// Reload re-reads the configuration.
	Reload  func() error
	Message func(key string) string
	Version string
	Logger  *slog.Logger
}

// Handler executes and completes the command.
type Handler struct {
	deps Dependencies
}

// New creates a Handler.
func New(deps Dependencies) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Message == nil {
		deps.Message = config.Message
	}
	return &Handler{deps: deps}
}

// ParseAmount parses a give amount.
func ParseAmount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if n < 1 || n > core.MaxStackSize {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// Execute runs the command with the arguments after the command name.
// It always reports the command as handled.
func (h *Handler) Execute(sender host.CommandSender, args []string) bool {
	if len(args) == 0 {
		sender.SendMessage(util.Gold + "TrappedTnt v" + h.deps.Version)
		sender.SendMessage(util.Yellow + "Use /trappedtnt help for available commands")
		return true
	}

	switch strings.ToLower(args[0]) {
	case "help":
		h.help(sender)
	case "reload":
		h.reload(sender)
	case "give":
		if !sender.HasPermission(PermGive) {
			sender.SendMessage(util.Red + "You don't have permission to give trapped TNT!")
			return true
		}
		h.give(sender, args[1:])
	default:
		sender.SendMessage(util.Red + "Unknown command. Use /trappedtnt help for available commands")
	}
	return true
}

func (h *Handler) help(sender host.CommandSender) {
	sender.SendMessage(util.Gold + "=== TrappedTnt Help ===")
	sender.SendMessage(util.Yellow + "/trappedtnt - Show plugin information")
	sender.SendMessage(util.Yellow + "/trappedtnt help - Show this help message")
	if sender.HasPermission(PermGive) {
		sender.SendMessage(util.Yellow + "/trappedtnt give [player] [amount] - Give trapped TNT")
	}
	if sender.HasPermission(PermAdmin) {
		sender.SendMessage(util.Yellow + "/trappedtnt reload - Reload plugin configuration")
	}
}

func (h *Handler) reload(sender host.CommandSender) {
	if !sender.HasPermission(PermAdmin) {
		sender.SendMessage(util.Red + "You don't have permission to reload the plugin!")
		return
	}
	if h.deps.Reload != nil {
		if err := h.deps.Reload(); err != nil {
			h.deps.Logger.Warn("Failed to reload config", "sender", sender.Name(), "error", err)
			sender.SendMessage(util.Red + "Failed to reload configuration, check the server log.")
			return
		}
	}
	h.deps.Logger.Info("Configuration reloaded", "sender", sender.Name())
	sender.SendMessage(util.Green + "TrappedTnt configuration reloaded!")
}

// give handles "give [player] [amount]".
func (h *Handler) give(sender host.CommandSender, args []string) {
	var target host.Player

	if len(args) >= 1 {
		p, ok := h.deps.Players.Player(args[0])
		if !ok {
			sender.SendMessage(util.Red + "Player '" + args[0] + "' not found!")
			return
		}
		target = p
	} else {
		p, ok := sender.(host.Player)
		if !ok {
			sender.SendMessage(util.Red + "You must specify a player when using this command from console!")
			sender.SendMessage(util.Yellow + "Usage: /trappedtnt give <player> [amount]")
			return
		}
		target = p
	}

	amount := 1
	if len(args) >= 2 {
		n, err := ParseAmount(args[1])
		if errors.Is(err, ErrInvalidAmount) {
			sender.SendMessage(util.Red + "Amount must be between 1 and 64!")
			return
		}
		if err != nil {
			sender.SendMessage(util.Red + "Invalid amount! Please enter a number between 1 and 64.")
			return
		}
		amount = n
	}

	target.Inventory().AddItem(h.deps.Tagger.Create(amount))

	msg := util.FormatTemplate(h.deps.Message(config.MsgTrappedTntGiven), map[string]string{"amount": strconv.Itoa(amount)})
	target.SendMessage(util.TranslateColorCodes('&', msg))

	if sender.Name() != target.Name() {
		sender.SendMessage(fmt.Sprintf("%sGiven %d trapped TNT to %s", util.Green, amount, target.Name()))
	}
	h.deps.Logger.Debug("Gave trapped TNT", "sender", sender.Name(), "target", target.Name(), "amount", amount)
}

// Complete returns tab-completion candidates for the argument being typed.
func (h *Handler) Complete(sender host.CommandSender, args []string) []string {
	switch {
	case len(args) == 1:
		subcommands := []string{"help"}
		if sender.HasPermission(PermAdmin) {
			subcommands = append(subcommands, "reload")
		}
		if sender.HasPermission(PermGive) {
			subcommands = append(subcommands, "give")
		}
		return util.FilterPrefix(subcommands, args[0])

	case len(args) == 2 && strings.EqualFold(args[0], "give") && sender.HasPermission(PermGive):
		players := h.deps.Players.OnlinePlayers()
		names := make([]string, 0, len(players))
		for _, p := range players {
			names = append(names, p.Name())
		}
		return util.FilterPrefix(names, args[1])

	case len(args) == 3 && strings.EqualFold(args[0], "give") && sender.HasPermission(PermGive):
		return util.FilterPrefix(amountSuggestions, args[2])
	}
	return []string{}
}
