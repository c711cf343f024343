package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"

	"github.com/n3utr7no/Kaze-AI/audio"
	"github.com/n3utr7no/Kaze-AI/chat"
	"github.com/n3utr7no/Kaze-AI/geo"
	"github.com/n3utr7no/Kaze-AI/history"
	"github.com/n3utr7no/Kaze-AI/log"
	"github.com/n3utr7no/Kaze-AI/planner"
	"github.com/n3utr7no/Kaze-AI/speech"
	"github.com/n3utr7no/Kaze-AI/transcriber"
)

var version = "dev"

const defaultBackendURL = "http://localhost:5000"

var shutdownOnce sync.Once

func gracefulShutdown(store *history.Store, ctx audio.Context) {
	shutdownOnce.Do(func() {
		if store != nil {
			store.Stop()
		}
		if ctx != nil {
			ctx.Close()
		}
		log.Close()
		os.Exit(0)
	})
}

// envOr reads an environment variable with a fallback, after godotenv has
// folded .env into the environment.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run() {
	godotenv.Load()

	backendFlag := flag.String("backend", "", "assistant backend base URL (default: KAZE_BACKEND_URL or "+defaultBackendURL+")")
	projectFlag := flag.String("project", "", "GCP project for the Firestore history (default: KAZE_GCP_PROJECT; empty = in-memory history)")
	userFlag := flag.String("user", "", "history identity (default: KAZE_USER or \"local\")")
	categoryFlag := flag.String("category", "Travel", "initial plan category")
	langFlag := flag.String("lang", "en", "display language: en or ja")
	deviceFlag := flag.String("device", "", "use named microphone device")
	setupFlag := flag.Bool("setup", false, "select microphone device interactively")
	geoFlag := flag.Bool("geo", false, "attach best-effort device location to plan requests")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location)")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("kaze %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	backendURL := *backendFlag
	if backendURL == "" {
		backendURL = envOr("KAZE_BACKEND_URL", defaultBackendURL)
	}
	project := *projectFlag
	if project == "" {
		project = os.Getenv("KAZE_GCP_PROJECT")
	}
	userID := *userFlag
	if userID == "" {
		userID = envOr("KAZE_USER", "local")
	}
	lang := chat.ParseLanguage(*langFlag)

	log.SessionStart(backendURL, *categoryFlag, string(lang))

	audioCtx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := audioCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(audioCtx)
		if err != nil {
			log.Warnf("device selection: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			selectedDevice = nil
		}
	}

	var sink EventSink = programSink{}

	// History: Firestore when a project is configured, in-memory otherwise.
	var col history.Collection
	if project != "" {
		fs, err := history.NewFirestoreCollection(context.Background(), project, userID)
		if err != nil {
			log.Errorf("firestore init: %v", err)
			fmt.Fprintf(os.Stderr, "Error connecting to Firestore: %v\n", err)
			os.Exit(1)
		}
		col = fs
	} else {
		col = history.NewMemoryCollection()
	}

	store := history.New(col, lang)
	store.OnChange(func(msgs []chat.Message) {
		sink.History(msgs)
		log.HistoryEvent("history_snapshot", len(msgs))
	})

	notifier := NewNotifier(func(text string) { sink.Notification(text) })
	store.OnError(func(err error) {
		log.Errorf("history feed: %v", err)
		notifier.Show("History sync problem")
	})

	recorder := audio.NewRecorder(audioCtx, selectedDevice, func(bars []float64) {
		sink.Bars(bars)
	})

	stt := transcriber.NewBackend(backendURL, func(nm *transcriber.NetworkMetrics) {
		log.TranscriptionMetrics(log.Metrics{
			DNSTimeMs:   float64(nm.DNS.Milliseconds()),
			TLSTimeMs:   float64(nm.TLS.Milliseconds()),
			TTFBMs:      float64(nm.TTFB.Milliseconds()),
			TotalTimeMs: float64(nm.Total.Milliseconds()),
		}, recorder.Container(), nm.ConnReused)
	})
	plan := planner.NewBackend(backendURL)

	session := NewSession(recorder, stt, plan, store, notifier)
	session.SetCategory(*categoryFlag)
	session.SetLanguage(lang)
	session.OnState(func(s State) { sink.StateChanged(s) })

	if *geoFlag {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			point, err := geo.NewResolver().Locate(ctx)
			if err != nil {
				log.Warnf("geolocation: %v", err)
				return
			}
			session.SetLocation(point)
		}()
	}

	var tts *speech.Output
	if synth, err := speech.NewSynthesizer(); err != nil {
		log.Warnf("speech synthesis unavailable: %v", err)
		tts = speech.NewOutput(speech.Noop{})
	} else {
		tts = speech.NewOutput(synth)
	}

	app := &tuiApp{
		session: session,
		store:   store,
		speech:  tts,
		copy:    clipboard.WriteAll,
		start: func() error {
			if err := store.Start(context.Background()); err != nil {
				log.Errorf("history start: %v", err)
				return err
			}
			return nil
		},
	}

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(app)
	tuiMu.Unlock()

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI: %v", err)
		os.Exit(1)
	}
	tts.Stop()
	gracefulShutdown(store, audioCtx)
}

func main() {
	run()
}
