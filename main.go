package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dictator/audio"
	"dictator/beep"
	"dictator/clipboard"
	"dictator/config"
	"dictator/doctor"
	"dictator/hotkey"
	"dictator/log"
	"dictator/login"
	"dictator/notify"
	"dictator/recorder"
	"dictator/session"
	"dictator/shutdown"
	"dictator/transcriber"
	"dictator/tray"
	"dictator/tui"
)

var version = "dev"

// drainTimeout bounds how long shutdown waits for an in-flight transcription
// before cancelling it.
const drainTimeout = 10 * time.Second

type options struct {
	hotkey     string
	device     string
	setup      bool
	model      string
	norm       float64
	listener   string
	tui        bool
	beep       bool
	logPath    string
	configPath string
	doctor     bool
	version    bool
	test       string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.hotkey, "hotkey", "", "Push-to-talk key: "+fmt.Sprint(hotkey.Names()))
	flag.StringVar(&o.device, "device", "", "Use named microphone device")
	flag.BoolVar(&o.setup, "setup", false, "Select microphone device interactively and save it")
	flag.StringVar(&o.model, "model", "", "Path to a whisper ggml model (default: search the models directories)")
	flag.Float64Var(&o.norm, "norm", 0, "Level meter normalization (RMS that reads as full scale)")
	flag.StringVar(&o.listener, "listener", "", "Key listener backend: hook or evdev (linux)")
	flag.BoolVar(&o.tui, "tui", false, "Run with terminal UI")
	flag.BoolVar(&o.beep, "beep", false, "Play start and stop sounds")
	flag.StringVar(&o.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	flag.StringVar(&o.configPath, "config", "", "Config file (default: ~/.config/dictator/config.json)")
	flag.BoolVar(&o.doctor, "doctor", false, "Run system diagnostics and exit")
	flag.BoolVar(&o.version, "version", false, "Print version and exit")
	flag.StringVar(&o.test, "test", "", "Test mode: replay this WAV file, driven by stdin commands")
	flag.Parse()
	return o
}

// merge applies explicitly set flags over the loaded config.
func merge(cfg config.Config, o options) config.Config {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hotkey":
			cfg.Hotkey = o.hotkey
		case "device":
			cfg.Device = o.device
		case "model":
			cfg.Model = o.model
		case "norm":
			cfg.Normalization = o.norm
		case "beep":
			cfg.Beep = o.beep
		}
	})
	return cfg
}

func resolveBinding(name string) hotkey.Binding {
	if b, ok := hotkey.Lookup(name); ok {
		return b
	}
	log.Warnf("unknown hotkey %q, using %s", name, hotkey.DefaultBinding)
	fmt.Fprintf(os.Stderr, "Warning: unknown hotkey %q, using %s\n", name, hotkey.DefaultBinding)
	return hotkey.Default()
}

func modelLocator(override string) transcriber.Locator {
	return transcriber.Locator{Override: override, File: transcriber.DefaultModelFile}
}

// modelName is the loaded model's file name, or the one being searched for.
func modelName(svc *transcriber.Service, loc transcriber.Locator) string {
	if p := svc.ModelPath(); p != "" {
		return filepath.Base(p)
	}
	if loc.Override != "" {
		return filepath.Base(loc.Override)
	}
	return loc.File
}

// settings owns the config file for menu-driven changes.
type settings struct {
	mu   sync.Mutex
	path string
	cfg  config.Config
}

func (s *settings) update(fn func(*config.Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	if s.path == "" {
		return
	}
	if err := config.Save(s.path, s.cfg); err != nil {
		log.Warnf("failed to save config: %v", err)
	}
}

func run() {
	o := parseFlags()

	if o.version {
		fmt.Printf("dictator %s\n", version)
		os.Exit(0)
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(o.logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	log.InitCrashOutput()

	cfgPath := o.configPath
	if cfgPath == "" {
		if cfgPath, err = config.DefaultPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: no config location: %v\n", err)
		}
	}
	cfg := config.Default()
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	cfg = merge(cfg, o)
	binding := resolveBinding(cfg.Hotkey)
	locator := modelLocator(cfg.Model)

	if o.doctor {
		os.Exit(doctor.Run(doctor.Options{
			Binding:  binding,
			Listener: o.listener,
			Device:   cfg.Device,
			Norm:     cfg.Normalization,
			Locator:  locator,
		}))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if o.test != "" {
		code := runTestMode(o.test, binding, locator, cfg.Normalization)
		log.Close()
		os.Exit(code)
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	st := &settings{path: cfgPath, cfg: cfg}
	if o.setup {
		dev, err := audio.SelectDevice(actx, cfg.Device)
		if errors.Is(err, audio.ErrSelectionCancelled) {
			fmt.Println("Keeping current device")
		} else if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
		} else {
			st.update(func(c *config.Config) { c.Device = dev.Name })
			cfg.Device = dev.Name
		}
	}

	dev, err := audio.FindDevice(actx, cfg.Device)
	if err != nil {
		log.Warnf("device enumeration failed: %v", err)
	}
	if cfg.Device != "" && dev == nil {
		log.Warnf("device not found: %s, using system default", cfg.Device)
		fmt.Printf("Warning: device %q not found, using system default\n", cfg.Device)
	}
	rec := recorder.New(actx, recorder.WithDevice(dev), recorder.WithNormalization(cfg.Normalization))

	svc := transcriber.NewService(locator, nil)
	defer svc.Close()
	go func() {
		// warm the model so the first dictation is not slowed by the load
		if _, err := svc.Model(); err != nil {
			log.Warnf("model preload failed: %v", err)
		}
	}()

	if err := clipboard.Init(); err != nil {
		log.Warnf("paste init failed: %v", err)
		fmt.Printf("Warning: paste init failed: %v\n", err)
		fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
	}
	paster := clipboard.NewPaster()

	sigCtx, stop := shutdown.NotifyContext(context.Background())
	defer stop()
	// transcriptions outlive the signal so shutdown can drain them
	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	obs := session.Observers{trayObserver{}, logObserver{}}
	if cfg.Beep {
		go beep.Init()
		obs = append(obs, &beepObserver{})
	}
	var prog *tui.Program
	if o.tui {
		prog = tui.New(version)
		obs = append(obs, prog)
	}

	ctrl := session.New(appCtx, rec, svc, paster,
		session.WithObserver(obs),
		session.WithNotifier(notify.Notify),
	)

	factory, err := hotkey.Factory(o.listener)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	mon := hotkey.NewMonitor(factory, ctrl, binding)

	setInfo := func() {
		if prog != nil {
			prog.SetInfo(mon.Binding().Name, rec.DeviceName(), modelName(svc, locator))
		}
	}

	if cfg.AutoStart && !login.Enabled() {
		if err := login.Enable(); err != nil {
			log.Warnf("start at login: %v", err)
		}
	}

	trayQuit := tray.Init(tray.Options{
		Hotkeys: hotkey.Names(),
		Hotkey:  binding.Name,
		Login:   login.Enabled(),
		OnHotkey: func(name string) error {
			b, ok := hotkey.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown hotkey %q", name)
			}
			if err := mon.Rebind(b); err != nil {
				return err
			}
			st.update(func(c *config.Config) { c.Hotkey = name })
			setInfo()
			return nil
		},
		OnLogin: func(on bool) error {
			toggle := login.Disable
			if on {
				toggle = login.Enable
			}
			if err := toggle(); err != nil {
				return err
			}
			st.update(func(c *config.Config) { c.AutoStart = on })
			return nil
		},
	})
	go func() {
		select {
		case <-trayQuit:
			log.Info("tray_quit")
			stop()
		case <-sigCtx.Done():
		}
	}()

	if prog != nil {
		go func() {
			if err := prog.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
			}
			stop()
		}()
		setInfo()
	} else {
		fmt.Printf("dictator %s: hold %s to dictate\n", version, binding.Name)
	}

	log.SessionStart(binding.Name, modelName(svc, locator), rec.DeviceName())

	if err := mon.Run(sigCtx); err != nil {
		log.Errorf("hotkey listener start error: %v", err)
		msg := fmt.Sprintf("Could not listen for %s: %v", binding.Name, err)
		if errors.Is(err, os.ErrPermission) {
			msg += " (grant input monitoring permission or join the input group)"
		}
		notify.Notify("Hotkey unavailable", msg)
		fmt.Println("Error: " + msg)
		stop()
	}

	gracefulShutdown(ctrl, paster, cancelApp)
	tray.Quit()
	if prog != nil {
		prog.Quit()
	}
}

// gracefulShutdown lets an in-flight transcription finish, then flushes the
// clipboard restore and closes the session log.
func gracefulShutdown(ctrl *session.Controller, paster *clipboard.Paster, cancel context.CancelFunc) {
	if ctrl.State() == session.Recording {
		ctrl.OnRelease()
	}
	done := make(chan struct{})
	go func() {
		ctrl.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		log.Warn("transcription still running at shutdown, cancelling")
		cancel()
		<-done
	}
	paster.Flush()
	log.SessionEnd(ctrl.Pasted())
}
