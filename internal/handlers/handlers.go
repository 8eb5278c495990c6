// Package handlers binds the trap components to host events and runs the
// plugin lifecycle.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sanscraft/trappedtnt/internal/command"
	"github.com/sanscraft/trappedtnt/internal/config"
	"github.com/sanscraft/trappedtnt/internal/detonation"
	"github.com/sanscraft/trappedtnt/internal/dispatcher"
	"github.com/sanscraft/trappedtnt/internal/itemtag"
	"github.com/sanscraft/trappedtnt/internal/proximity"
	"github.com/sanscraft/trappedtnt/internal/registry"
	"github.com/sanscraft/trappedtnt/internal/zone"
	"github.com/sanscraft/trappedtnt/pkg/core"
	"github.com/sanscraft/trappedtnt/pkg/host"
)

// EventSink receives journal entries.
type EventSink interface {
	Append(e core.TrapEvent)
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Server     host.Server
	Dispatcher *dispatcher.Dispatcher
	Registry   *registry.Registry
	Tagger     *itemtag.Tagger
	Events     EventSink
	// Closers are closed on Disable, in order.
	Closers    []io.Closer
	Logger     *slog.Logger
	PluginName string
	Version    string

	// Config accessors, defaulting to the config package.
	Settings func() config.Trap
	Zones    func() (config.ZoneConfig, error)
	Reload   func() error
	Message  func(key string) string
}

// Service owns the plugin components between Enable and Disable.
type Service struct {
	deps Dependencies

	authorizer  *zone.Authorizer
	coordinator *detonation.Coordinator
	scanner     *proximity.Scanner
	commands    *command.Handler

	allowed []string
	enabled bool
}

// NewService creates a handler service. Nothing is registered until Enable.
func NewService(deps Dependencies) (*Service, error) {
	if deps.Server == nil || deps.Dispatcher == nil || deps.Registry == nil {
		return nil, errors.New("server, dispatcher and registry are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tagger == nil {
		deps.Tagger = itemtag.New()
	}
	if deps.PluginName == "" {
		deps.PluginName = "TrappedTnt"
	}
	if deps.Settings == nil {
		deps.Settings = config.GetTrapConfig
	}
	if deps.Zones == nil {
		deps.Zones = config.GetZoneConfig
	}
	if deps.Reload == nil {
		deps.Reload = config.Reload
	}
	if deps.Message == nil {
		deps.Message = config.Message
	}
	return &Service{deps: deps}, nil
}

// Enable builds the components and starts listening for host events.
func (s *Service) Enable() error {
	if s.enabled {
		return nil
	}

	s.authorizer = zone.NewAuthorizer(nil, s.deps.Logger)
	s.loadZones()

	coordinator, err := detonation.New(detonation.Dependencies{
		Server:       s.deps.Server,
		Registry:     s.deps.Registry,
		Authorizer:   s.authorizer,
		Tagger:       s.deps.Tagger,
		Settings:     s.deps.Settings,
		AllowedZones: s.allowedZones,
		Message:      s.deps.Message,
		Logger:       s.deps.Logger,
		Events:       s.deps.Events,
	})
	if err != nil {
		return fmt.Errorf("creating detonation coordinator: %w", err)
	}
	s.coordinator = coordinator

	s.scanner = proximity.New(proximity.Dependencies{
		Registry: s.deps.Registry,
		Entities: s.deps.Server,
		Settings: s.deps.Settings,
		Logger:   s.deps.Logger,
		Events:   s.deps.Events,
	})

	s.commands = command.New(command.Dependencies{
		Players: s.deps.Server,
		Tagger:  s.deps.Tagger,
		Reload:  s.Reload,
		Message: s.deps.Message,
		Version: s.deps.Version,
		Logger:  s.deps.Logger,
	})

	s.register()

	if s.authorizer.Available() {
		s.deps.Logger.Info("Zone service found, placement restricted to allowed regions", "allowed", s.allowed)
	} else {
		s.deps.Logger.Info("Zone service not found, trapped TNT can be placed anywhere")
	}
	s.deps.Logger.Info(s.deps.PluginName+" enabled", "version", s.deps.Version)
	s.enabled = true
	return nil
}

func (s *Service) register() {
	var extra []dispatcher.Option
	if s.deps.Settings().Debug {
		extra = append(extra, dispatcher.Logged())
	}
	opts := func(o ...dispatcher.Option) []dispatcher.Option {
		return append(o, extra...)
	}

	d := s.deps.Dispatcher
	d.Register(host.KindBlockPlace, on(s.coordinator.HandleBlockPlace),
		opts(dispatcher.Priority(dispatcher.PriorityHigh), dispatcher.IgnoreCancelled())...)
	d.Register(host.KindPlayerMove, on(func(ev *host.PlayerMoveEvent) {
		s.scanner.Scan(ev.Player, ev.To)
	}), opts(dispatcher.IgnoreCancelled())...)
	d.Register(host.KindEntityExplode, on(s.coordinator.HandleExplode), opts()...)
	d.Register(host.KindEntityDamageByEntity, on(s.coordinator.HandleDamage),
		opts(dispatcher.Priority(dispatcher.PriorityHigh), dispatcher.IgnoreCancelled())...)
}

// on adapts a typed event callback to a dispatcher handler.
func on[T any](fn func(T)) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) error {
		payload, ok := e.Payload.(T)
		if !ok {
			return fmt.Errorf("%s: unexpected payload %T", e.Kind, e.Payload)
		}
		fn(payload)
		return nil
	}
}

// Disable stops event handling, forgets every tracked trap and closes the closers.
func (s *Service) Disable() error {
	if !s.enabled {
		return nil
	}
	s.enabled = false

	s.coordinator.Stop()
	s.deps.Dispatcher.Reset()
	s.deps.Registry.Clear()

	var errs []error
	for _, c := range s.deps.Closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		s.deps.Logger.Warn("Errors while shutting down", "error", err)
	}
	s.deps.Logger.Info(s.deps.PluginName + " disabled")
	return err
}

// Reload re-reads the configuration and rebuilds the zone service.
func (s *Service) Reload() error {
	if err := s.deps.Reload(); err != nil {
		return err
	}
	if s.authorizer != nil {
		s.loadZones()
	}
	return nil
}

func (s *Service) loadZones() {
	cfg, err := s.deps.Zones()
	if err != nil {
		s.deps.Logger.Warn("Invalid zone configuration, ignoring zone definitions", "error", err)
	}
	s.allowed = cfg.AllowedRegions

	if len(cfg.Definitions) == 0 {
		s.authorizer.SetService(nil)
		return
	}
	svc := zone.NewStaticService(cfg.Definitions, s.deps.Logger)
	if svc.Len() == 0 {
		s.authorizer.SetService(nil)
		return
	}
	s.authorizer.SetService(svc)
}

func (s *Service) allowedZones() []string {
	return s.allowed
}

// Command runs /trappedtnt for sender.
func (s *Service) Command(sender host.CommandSender, args []string) bool {
	if !s.enabled {
		return false
	}
	return s.commands.Execute(sender, args)
}

// Complete returns tab completions for /trappedtnt.
func (s *Service) Complete(sender host.CommandSender, args []string) []string {
	if !s.enabled {
		return nil
	}
	return s.commands.Complete(sender, args)
}

// Enabled reports whether the plugin is running.
func (s *Service) Enabled() bool {
	return s.enabled
}

// Coordinator returns the detonation coordinator, nil before Enable.
func (s *Service) Coordinator() *detonation.Coordinator {
	return s.coordinator
}

// Authorizer returns the placement authorizer, nil before Enable.
func (s *Service) Authorizer() *zone.Authorizer {
	return s.authorizer
}
