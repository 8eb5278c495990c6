package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sanscraft/trappedtnt/internal/handlers"
	"github.com/sanscraft/trappedtnt/internal/itemtag"
	"github.com/sanscraft/trappedtnt/internal/simhost"
	"github.com/sanscraft/trappedtnt/internal/storage"
	"github.com/sanscraft/trappedtnt/internal/util"
	"github.com/sanscraft/trappedtnt/internal/worker"
	"github.com/sanscraft/trappedtnt/pkg/core"
)

const defaultWorld = "world"

const consoleHelp = `Console commands:
  trappedtnt [args...]         run the plugin command as the console
  as <player> [args...]        run the plugin command as a player
  tab [args...]                tab-complete the plugin command
  join <player> [x y z]        connect a player
  op <player>                  give a player every permission
  move <player> <x> <y> <z>    walk a player to a position
  place <player> <x> <y> <z>   have a player place trapped TNT
  shield <player> [up|down]    equip a shield and raise or lower it
  tick [n]                     advance n ticks
  pause | resume               stop or restart the tick loop
  status                       show the tick, live TNT and players
  journal                      list recorded trap events
  stop                         shut down`

// console drives the simulated server from text commands. Every host call
// happens on the goroutine running run.
type console struct {
	server  *simhost.Server
	service *handlers.Service
	journal storage.Backend
	tagger  *itemtag.Tagger
	writers []*worker.Writer
	out     io.Writer
	paused  bool

	seen map[string]int
}

func newConsole(server *simhost.Server, service *handlers.Service, journal storage.Backend, out io.Writer) *console {
	server.AddWorld(defaultWorld)
	return &console{
		server:  server,
		service: service,
		journal: journal,
		tagger:  itemtag.New(),
		out:     out,
		seen:    make(map[string]int),
	}
}

// run ticks the server every interval and executes lines from in until stop or EOF.
func (c *console) run(in io.Reader, interval time.Duration) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Fprintln(c.out, "Type 'help' for console commands.")
	for {
		select {
		case <-ticker.C:
			if !c.paused {
				c.server.Tick()
				c.flush()
			}
		case line, ok := <-lines:
			if !ok || c.exec(line) {
				return
			}
		}
	}
}

// exec runs one console line. It reports whether the console should stop.
func (c *console) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	defer c.flush()

	cmd, args := strings.ToLower(strings.TrimPrefix(fields[0], "/")), fields[1:]
	switch cmd {
	case "stop", "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
	case "trappedtnt":
		if !c.service.Command(c.server.Console(), args) {
			fmt.Fprintln(c.out, "Plugin is disabled")
		}
	case "as":
		c.runAs(args)
	case "tab":
		if len(args) == 0 {
			args = []string{""}
		}
		fmt.Fprintln(c.out, strings.Join(c.service.Complete(c.server.Console(), args), " "))
	case "join":
		c.join(args)
	case "op":
		if p, ok := c.player(args); ok {
			p.SetOp(true)
			fmt.Fprintf(c.out, "Made %s a server operator\n", p.Name())
		}
	case "move":
		c.move(args)
	case "place":
		c.place(args)
	case "shield":
		c.shield(args)
	case "tick":
		c.tick(args)
	case "pause":
		c.paused = true
		fmt.Fprintf(c.out, "Paused at tick %d\n", c.server.CurrentTick())
	case "resume":
		c.paused = false
	case "status":
		c.status()
	case "journal":
		c.printJournal()
	default:
		fmt.Fprintf(c.out, "Unknown console command %q, type 'help'\n", cmd)
	}
	return false
}

func (c *console) player(args []string) (*simhost.Player, bool) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Missing player name")
		return nil, false
	}
	p, ok := c.server.SimPlayer(args[0])
	if !ok || !p.IsValid() {
		fmt.Fprintf(c.out, "Player %q is not online\n", args[0])
		return nil, false
	}
	return p, true
}

func (c *console) runAs(args []string) {
	p, ok := c.player(args)
	if !ok {
		return
	}
	if !c.service.Command(p, args[1:]) {
		fmt.Fprintln(c.out, "Plugin is disabled")
	}
}

func (c *console) join(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "Usage: join <player> [x y z]")
		return
	}
	pos := core.Vec3{Y: 64}
	if len(args) >= 4 {
		v, err := parseVec(args[1:4])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return
		}
		pos = v
	}
	p := c.server.AddPlayer(args[0], defaultWorld, pos)
	fmt.Fprintf(c.out, "%s joined at %s\n", p.Name(), pos)
}

func (c *console) move(args []string) {
	p, ok := c.player(args)
	if !ok {
		return
	}
	if len(args) < 4 {
		fmt.Fprintln(c.out, "Usage: move <player> <x> <y> <z>")
		return
	}
	to, err := parseVec(args[1:4])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	c.server.MovePlayer(p, to)
}

func (c *console) place(args []string) {
	p, ok := c.player(args)
	if !ok {
		return
	}
	if len(args) < 4 {
		fmt.Fprintln(c.out, "Usage: place <player> <x> <y> <z>")
		return
	}
	v, err := parseVec(args[1:4])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	pos := core.BlockPos{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
	if !c.server.PlaceBlock(p, c.tagger.Create(1), pos) {
		fmt.Fprintf(c.out, "Placement at %s was cancelled\n", pos)
	}
}

func (c *console) shield(args []string) {
	p, ok := c.player(args)
	if !ok {
		return
	}
	raise := len(args) < 2 || strings.EqualFold(args[1], "up")
	p.SimInventory().SetOffHand(core.NewItemStack(core.MaterialShield, 1))
	p.SetBlocking(raise)
}

func (c *console) tick(args []string) {
	n := 1
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			fmt.Fprintln(c.out, "Usage: tick [n], n >= 1")
			return
		}
		n = v
	}
	for i := 0; i < n; i++ {
		c.server.Tick()
		c.flush()
	}
	fmt.Fprintf(c.out, "Tick %d\n", c.server.CurrentTick())
}

func (c *console) status() {
	fmt.Fprintf(c.out, "Tick %d, %d live TNT, %d pending tasks\n",
		c.server.CurrentTick(), len(c.server.LiveTNT()), c.server.PendingTasks())
	for _, w := range c.writers {
		fmt.Fprintf(c.out, "  writer: %d queued, %d written, last write %s\n", w.Pending(), w.Written(), w.LastWriteDuration())
	}
	for _, hp := range c.server.OnlinePlayers() {
		p, _ := c.server.SimPlayer(hp.Name())
		fmt.Fprintf(c.out, "  %s at %s health %.1f blocking=%t\n", p.Name(), p.Location().Pos, p.Health(), p.IsBlocking())
	}
}

func (c *console) printJournal() {
	if c.journal == nil {
		fmt.Fprintln(c.out, "Journal is disabled")
		return
	}
	events, err := c.journal.Events()
	if err != nil {
		fmt.Fprintf(c.out, "Failed to read journal: %v\n", err)
		return
	}
	for _, e := range events {
		fmt.Fprintf(c.out, "#%d tick %d %s entity=%d at %s amount=%.2f\n", e.ID, e.Tick, e.Kind, e.Entity, e.Position, e.Amount)
	}
	fmt.Fprintf(c.out, "%d events\n", len(events))
}

// flush prints chat messages sent since the last flush.
func (c *console) flush() {
	c.flushSender("CONSOLE", c.server.Console().Messages())
	for _, p := range c.server.OnlinePlayers() {
		sp, _ := c.server.SimPlayer(p.Name())
		c.flushSender(p.Name(), sp.Messages())
	}
}

func (c *console) flushSender(name string, messages []string) {
	for _, m := range messages[c.seen[name]:] {
		fmt.Fprintf(c.out, "[%s] %s\n", name, util.StripColor(m))
	}
	c.seen[name] = len(messages)
}

func parseVec(args []string) (core.Vec3, error) {
	var xyz [3]float64
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("invalid coordinate %q", a)
		}
		xyz[i] = v
	}
	return core.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
