package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/websocket"
	namesgenerator "github.com/moby/moby/pkg/namesgenerator"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	cli "github.com/urfave/cli"

	"github.com/itarato/minignetserver/pkg/server"
	"github.com/itarato/minignetserver/session"
)

var (
	origin   string
	upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if origin == "*" {
				return true
			}
			if origin == r.Header.Get("Origin") {
				return true
			}
			return false
		},
	}
)

// Global cookie parameters
var sc *securecookie.SecureCookie

func main() {
	app := cli.NewApp()
	app.Name = "minignet-server"
	app.Usage = "serve up turn-based game sessions through websocket connections"
	app.Version = "0.1"
	app.Action = appEntry
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "host",
			Usage:  "Hostname to listen on",
			Value:  "localhost",
			EnvVar: "LISTEN_HOST",
		},
		cli.IntFlag{
			Name:   "port",
			Usage:  "TCP `port` to listen on",
			Value:  8888,
			EnvVar: "LISTEN_PORT",
		},
		cli.IntFlag{
			Name:   "min-gamers",
			Usage:  "Minimum gamers a session needs before it can start",
			Value:  session.DefaultMinGamers,
			EnvVar: "MIN_GAMERS",
		},
		cli.StringFlag{
			Name:   "hash-key",
			Usage:  "Hash key used for secure cookies",
			EnvVar: "HASH_KEY",
		},
		cli.StringFlag{
			Name:   "block-key",
			Usage:  "Block key used for secure cookies",
			EnvVar: "BLOCK_KEY",
		},
		cli.StringFlag{
			Name:        "origin",
			Usage:       "Sets the allowable origin",
			Value:       "*",
			EnvVar:      "ORIGIN",
			Destination: &origin,
		},
		cli.StringFlag{
			Name:   "log-level,l",
			Usage:  "Log `level` for output",
			Value:  "info",
			EnvVar: "LOG_LEVEL",
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error(err)
	}
}

func appEntry(c *cli.Context) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	host := c.String("host")
	port := c.Int("port")
	minGamers := c.Int("min-gamers")
	hashKey := []byte(c.String("hash-key"))
	blockKey := []byte(c.String("block-key"))
	switch strings.ToLower(c.String("log-level")) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	case "fatal":
		log.SetLevel(log.FatalLevel)
	}

	if len(hashKey) == 0 {
		log.Debug("Generating hashKey")
		hashKey = securecookie.GenerateRandomKey(32)
	}

	switch len(blockKey) {
	case 16, 24, 32:
	case 0:
		log.Debug("encryption disabled")
		blockKey = nil
	default:
		log.Debug("Invalid blockKey size using generated blockKey")
		blockKey = securecookie.GenerateRandomKey(32)
	}

	sc = securecookie.New(hashKey, blockKey)

	s := server.New(minGamers)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		gamerID, validGamer := gamerCookieHandler(w, r)
		if !validGamer {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		websocketHandler(w, r, gamerID, s)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: mux,
	}
	go func() {
		log.Infof("listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error(err)
	}
}

// gamerCookieHandler keeps a gamer's identity sticky across connections. A
// valid cookie wins, otherwise the gamer gets a generated readable id.
func gamerCookieHandler(w http.ResponseWriter, r *http.Request) (string, bool) {
	if cookie, err := r.Cookie("gamerid"); err == nil {
		g := ""
		if err = sc.Decode("gamerid", cookie.Value, &g); err == nil {
			return g, true
		}
	}
	g := namesgenerator.GetRandomName(0)
	encoded, err := sc.Encode("gamerid", g)
	if err != nil {
		log.Error(err)
		return "", false
	}
	cookie := &http.Cookie{
		Name:  "gamerid",
		Value: encoded,
	}
	http.SetCookie(w, cookie)
	return g, true
}

func websocketHandler(w http.ResponseWriter, r *http.Request, gamerID string, s *server.Server) {
	// Upgrade normal http request into a websocket session
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(err)
		return
	}
	go s.ServeConn(ws, gamerID)
}
