// Command torpedo is an example minignet game: two-player battleship played
// through a minignet server. Each gamer runs their own copy, the server only
// coordinates turns and relays the board updates.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli"

	"github.com/itarato/minignetserver/pkg/client"
	"github.com/itarato/minignetserver/session"
)

const boardSize = 10

var (
	shipSizes = []int{5, 4, 3, 3, 2}
	dirMap    = [2][2]int{{1, 0}, {0, 1}}
	guessRe   = regexp.MustCompile(`^([a-j]) (\d{1,2})$`)
)

type cellState int

const (
	cellUndiscovered cellState = iota
	cellHit
	cellMiss
)

type coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c coord) singular() int {
	return c.Y*boardSize + c.X
}

// torpedoUpdate is the payload exchanged through SendUpdate. A turn carries
// the reply to the opponent's last guess (when there was one) and our own
// next guess (unless our fleet just sank).
type torpedoUpdate struct {
	Guess *coord      `json:"guess,omitempty"`
	Reply *guessReply `json:"reply,omitempty"`
}

type guessReply struct {
	Coord     coord `json:"coord"`
	Hit       bool  `json:"hit"`
	FleetSunk bool  `json:"fleet_sunk"`
}

type game struct {
	client      *client.Client
	selfBoard   [boardSize * boardSize]cellState
	otherBoard  [boardSize * boardSize]cellState
	shipCells   map[int]bool
	ownHits     int
	myMoves     int
	lastSeenSeq uint64
	msgsSeen    int
	lines       chan string
}

func newGame(c *client.Client) *game {
	g := &game{
		client:    c,
		shipCells: make(map[int]bool),
		lines:     make(chan string),
	}
	g.placeFleet()
	// Single stdin reader, the game loop picks lines up from the channel.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			g.lines <- strings.TrimSpace(scanner.Text())
		}
		close(g.lines)
	}()
	return g
}

// placeFleet drops the ships at random non-overlapping spots.
func (g *game) placeFleet() {
	for _, shipSize := range shipSizes {
		for {
			startX := rand.Intn(boardSize)
			startY := rand.Intn(boardSize)
			dir := rand.Intn(2)

			fits := true
			cells := []int{}
			for i := 0; i < shipSize; i++ {
				x := startX + dirMap[dir][0]*i
				y := startY + dirMap[dir][1]*i
				if x >= boardSize || y >= boardSize {
					fits = false
					break
				}
				cell := coord{X: x, Y: y}.singular()
				if g.shipCells[cell] {
					fits = false
					break
				}
				cells = append(cells, cell)
			}
			if !fits {
				continue
			}
			for _, cell := range cells {
				g.shipCells[cell] = true
			}
			log.Debugf("ship at x=%d y=%d d=%d size=%d", startX, startY, dir, shipSize)
			break
		}
	}
}

func (g *game) totalShipCells() int {
	return len(g.shipCells)
}

// opponentUpdates collects the updates other gamers recorded since we last
// looked. With a two gamer rotation the opponent's latest move sits either
// in the round we are about to play or the one before it.
func (g *game) opponentUpdates() ([]session.RoundUpdate, error) {
	out := []session.RoundUpdate{}
	for _, round := range []int{g.myMoves - 1, g.myMoves} {
		if round < 0 {
			continue
		}
		updates, err := g.client.RoundUpdates(round)
		if err != nil {
			return nil, err
		}
		for _, u := range updates {
			if u.GamerID == g.client.GamerID || u.Seq <= g.lastSeenSeq {
				continue
			}
			g.lastSeenSeq = u.Seq
			out = append(out, u)
		}
	}
	return out, nil
}

// handleOpponentUpdate applies one opponent update to the boards. It returns
// the reply owed for their guess (nil when they did not guess), whether our
// fleet just sank, and whether theirs did.
func (g *game) handleOpponentUpdate(u session.RoundUpdate) (*guessReply, bool, bool) {
	update := torpedoUpdate{}
	if err := json.Unmarshal(u.Payload, &update); err != nil {
		log.Errorf("undecodable update from '%s': %s", u.GamerID, err)
		return nil, false, false
	}

	if update.Reply != nil {
		mark := cellMiss
		if update.Reply.Hit {
			mark = cellHit
			fmt.Printf("Hit at %s!\n", formatCoord(update.Reply.Coord))
		} else {
			fmt.Printf("Miss at %s.\n", formatCoord(update.Reply.Coord))
		}
		g.otherBoard[update.Reply.Coord.singular()] = mark
		if update.Reply.FleetSunk {
			return nil, false, true
		}
	}

	if update.Guess != nil {
		cell := update.Guess.singular()
		hit := g.shipCells[cell] && g.selfBoard[cell] != cellHit
		if hit {
			g.selfBoard[cell] = cellHit
			g.ownHits++
			fmt.Printf("They hit your ship at %s!\n", formatCoord(*update.Guess))
		} else {
			if g.selfBoard[cell] == cellUndiscovered {
				g.selfBoard[cell] = cellMiss
			}
			fmt.Printf("They missed at %s.\n", formatCoord(*update.Guess))
		}
		reply := &guessReply{
			Coord:     *update.Guess,
			Hit:       hit,
			FleetSunk: g.ownHits >= g.totalShipCells(),
		}
		return reply, reply.FleetSunk, false
	}

	return nil, false, false
}

// promptGuess reads the next guess from stdin. Lines starting with "say "
// go out as session messages instead.
func (g *game) promptGuess() (coord, bool) {
	for {
		if g.lines == nil {
			return coord{}, false
		}
		fmt.Print("your guess (row letter + column, e.g. 'b 4'): ")
		raw, ok := <-g.lines
		if !ok {
			g.lines = nil
			return coord{}, false
		}
		if text, ok := strings.CutPrefix(raw, "say "); ok {
			if err := g.client.SendMessage("", []byte(text)); err != nil {
				log.Error(err)
			}
			continue
		}
		caps := guessRe.FindStringSubmatch(raw)
		if caps == nil {
			fmt.Printf("unparsable command: %q\n", raw)
			continue
		}
		y := int(caps[1][0] - 'a')
		x, err := strconv.Atoi(caps[2])
		if err != nil || x < 1 || x > boardSize {
			fmt.Printf("column out of range: %q\n", caps[2])
			continue
		}
		return coord{X: x - 1, Y: y}, true
	}
}

// printNewMessages shows session messages that arrived since the last poll.
func (g *game) printNewMessages() {
	msgs, err := g.client.FetchAllMessages()
	if err != nil {
		log.Error(err)
		return
	}
	for ; g.msgsSeen < len(msgs); g.msgsSeen++ {
		m := msgs[g.msgsSeen]
		if m.From == g.client.GamerID {
			continue
		}
		fmt.Printf("[%s] %s\n", m.From, m.Payload)
	}
}

func (g *game) render() {
	header := "   "
	for x := 1; x <= boardSize; x++ {
		header += fmt.Sprintf("%2d", x)
	}
	fmt.Printf("%s    %s\n", header, header)
	for y := 0; y < boardSize; y++ {
		self := fmt.Sprintf("%c |", 'a'+y)
		other := fmt.Sprintf("%c |", 'a'+y)
		for x := 0; x < boardSize; x++ {
			cell := coord{X: x, Y: y}.singular()
			self += " " + g.cellGlyph(g.selfBoard[cell], g.shipCells[cell])
			other += " " + g.cellGlyph(g.otherBoard[cell], false)
		}
		fmt.Printf("%s    %s\n", self, other)
	}
	fmt.Println("        (your fleet)                 (their waters)")
}

func (g *game) cellGlyph(s cellState, ship bool) string {
	switch s {
	case cellHit:
		return "x"
	case cellMiss:
		return "o"
	}
	if ship {
		return "#"
	}
	return "."
}

func (g *game) run() error {
	gamers, err := g.client.JoinSession()
	if err != nil {
		return err
	}
	fmt.Printf("Joined session '%s' as '%s', gamers so far: %s\n", g.client.SessionID, g.client.GamerID, strings.Join(gamers, ", "))
	fmt.Println("Type 'start' once everyone joined, or wait for another gamer to start.")

waitForStart:
	for {
		select {
		case raw, ok := <-g.lines:
			if !ok {
				// stdin is gone, keep waiting on the poll ticker alone
				g.lines = nil
				continue
			}
			if raw == "start" {
				// Tolerate a race with the other gamer starting first.
				if err := g.client.StartSession(); err != nil && err != session.ErrInvalidPhase {
					log.Error(err)
				}
			}
		case <-time.After(time.Second):
		}
		on, err := g.client.IsGameOn()
		if err != nil {
			return err
		}
		if on {
			break waitForStart
		}
	}
	fmt.Println("Game on!")
	g.render()

	var pendingReply *guessReply
	for {
		on, err := g.client.IsGameOn()
		if err != nil {
			return err
		}
		if !on {
			fmt.Println("Game over.")
			return nil
		}
		myTurn, err := g.client.IsGamerTurn()
		if err != nil {
			return err
		}
		g.printNewMessages()
		if !myTurn {
			time.Sleep(time.Second)
			continue
		}

		updates, err := g.opponentUpdates()
		if err != nil {
			return err
		}
		lost := false
		for _, u := range updates {
			reply, fleetSunk, opponentSunk := g.handleOpponentUpdate(u)
			if opponentSunk {
				fmt.Println("You sank their whole fleet, you win!")
				return g.client.EndSession()
			}
			if reply != nil {
				pendingReply = reply
			}
			if fleetSunk {
				lost = true
			}
		}

		update := torpedoUpdate{Reply: pendingReply}
		if lost {
			fmt.Println("Your fleet is gone, you lose.")
		} else {
			g.render()
			guess, ok := g.promptGuess()
			if !ok {
				return g.client.EndSession()
			}
			update.Guess = &guess
		}
		if err := g.client.SendUpdate(mustMarshal(update)); err != nil {
			return err
		}
		g.myMoves++
		pendingReply = nil
	}
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		log.Fatal(err)
	}
	return b
}

func formatCoord(c coord) string {
	return fmt.Sprintf("%c %d", 'a'+c.Y, c.X+1)
}

func main() {
	app := cli.NewApp()
	app.Name = "torpedo"
	app.Usage = "example battleship game played over a minignet server"
	app.Version = "0.1"
	app.Action = appEntry
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "server",
			Usage:  "Websocket `url` of the minignet server",
			Value:  "ws://localhost:8888/ws",
			EnvVar: "MINIGNET_SERVER",
		},
		cli.StringFlag{
			Name:   "session-id",
			Usage:  "Session to join, empty lets the server allocate one",
			EnvVar: "MINIGNET_SESSION",
		},
		cli.StringFlag{
			Name:   "gamer-id",
			Usage:  "Gamer identity to play as",
			EnvVar: "MINIGNET_GAMER",
		},
		cli.StringFlag{
			Name:   "log-level,l",
			Usage:  "Log `level` for output",
			Value:  "warn",
			EnvVar: "LOG_LEVEL",
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func appEntry(c *cli.Context) {
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}
	gamerID := c.String("gamer-id")
	if gamerID == "" {
		gamerID = fmt.Sprintf("gamer-%04d", rand.Intn(10000))
	}

	mgnClient := client.New(c.String("server"), c.String("session-id"), gamerID)
	defer mgnClient.Close()

	g := newGame(mgnClient)
	if err := g.run(); err != nil {
		log.Fatal(err)
	}
}
