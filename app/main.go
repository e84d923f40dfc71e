package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/joho/godotenv"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yura4350/jobtrack/app/codec"
	"github.com/yura4350/jobtrack/app/persistence"
	"github.com/yura4350/jobtrack/app/prompt"
	"github.com/yura4350/jobtrack/app/store"
	"github.com/yura4350/jobtrack/app/tab"
	"github.com/yura4350/jobtrack/app/tracker"
	"github.com/yura4350/jobtrack/app/web"
)

type options struct {
	Storage    string `long:"storage" env:"JOBTRACK_STORAGE" choice:"sqlite" choice:"files" default:"sqlite" description:"storage backend"`
	DB         string `long:"db" env:"JOBTRACK_DB" default:"jobtrack.db" description:"sqlite database file"`
	Dir        string `long:"dir" env:"JOBTRACK_DIR" default:"jobtrack-data" description:"directory for files storage"`
	DateFormat string `long:"date-format" env:"JOBTRACK_DATE_FORMAT" default:"1/2/2006" description:"layout of the added date, Go time format"`
	Dbg        bool   `long:"dbg" env:"JOBTRACK_DEBUG" description:"debug mode"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging"`
		Filename        string `long:"filename" env:"FILENAME" description:"file to write logs to, stderr if empty"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"maximum size in megabytes before rotation"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"maximum number of days to retain old log files"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"maximum number of old log files to retain"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"JOBTRACK_LOG"`

	Server struct {
		Web struct {
			Address        string        `long:"address" env:"ADDRESS" default:"127.0.0.1:8080" description:"listen address"`
			PasswordHash   string        `long:"password-hash" env:"PASSWORD_HASH" description:"bcrypt hash for basic auth, user jobtrack"`
			DevTools       string        `long:"devtools" env:"DEVTOOLS" description:"browser DevTools URL for \"save current tab\", e.g. http://127.0.0.1:9222"`
			DevToolsWait   time.Duration `long:"devtools-timeout" env:"DEVTOOLS_TIMEOUT" default:"5s" description:"timeout for DevTools queries"`
			TrustedOrigins []string      `long:"trusted-origin" env:"TRUSTED_ORIGINS" env-delim:"," description:"origin allowed to post cross-origin, e.g. a browser extension"`
			RateLimit      float64       `long:"rate-limit" env:"RATE_LIMIT" default:"10" description:"mutating requests per second per client"`
		} `group:"web" namespace:"web" env-namespace:"JOBTRACK_WEB"`
	} `command:"server" description:"run the web UI"`

	AddJob struct {
		Title    string `long:"title" description:"job title, defaults to \"Untitled Job\""`
		URL      string `long:"url" description:"job posting URL"`
		Tab      bool   `long:"tab" description:"take title and URL from the active browser tab"`
		DevTools string `long:"devtools" env:"JOBTRACK_DEVTOOLS" default:"http://127.0.0.1:9222" description:"browser DevTools URL used with --tab"`
	} `command:"add-job" description:"save a job posting"`

	AddRecruiter struct {
		Name     string `long:"name" description:"recruiter name"`
		Company  string `long:"company" description:"company, defaults to \"Unknown Company\""`
		URL      string `long:"url" description:"contact URL"`
		Tab      bool   `long:"tab" description:"take the URL from the active browser tab, ask for missing name and company"`
		DevTools string `long:"devtools" env:"JOBTRACK_DEVTOOLS" default:"http://127.0.0.1:9222" description:"browser DevTools URL used with --tab"`
	} `command:"add-recruiter" description:"save a recruiter contact"`

	List struct {
		Kind string `long:"kind" choice:"all" choice:"jobs" choice:"recruiters" default:"all" description:"which list to show"`
	} `command:"list" description:"show saved jobs and recruiters"`

	Clear struct {
		Kind string `long:"kind" choice:"jobs" choice:"recruiters" required:"true" description:"which list to delete"`
		Yes  bool   `short:"y" long:"yes" description:"do not ask for confirmation"`
	} `command:"clear" description:"delete all records of one list"`

	Export struct {
		Format string `long:"format" choice:"json" choice:"yaml" default:"json" description:"output format"`
		Output string `short:"o" long:"output" description:"output file, stdout if empty"`
	} `command:"export" description:"export both lists"`

	Schema struct{} `command:"schema" description:"print JSON schema of the export document"`
}

var opts options

var revision = "unknown"

// slotStore is a slots backend owned by the command
type slotStore interface {
	store.Slots
	Close() error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	command, err := parseOpts(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	if err := run(ctx, command, os.Stdin, os.Stdout); err != nil {
		log.Printf("[ERROR] %s failed: %v", command, err)
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseOpts fills opts from args and env, returns the name of the selected command
func parseOpts(args []string) (string, error) {
	p := flags.NewParser(&opts, flags.Default)
	if _, err := p.ParseArgs(args); err != nil {
		return "", err
	}
	if p.Active == nil {
		return "", errors.New("no command specified")
	}
	return p.Active.Name, nil
}

// run executes command on the configured storage
func run(ctx context.Context, command string, in io.Reader, out io.Writer) error {
	switch command {
	case "schema":
		return codec.WriteSchema(out)
	case "server":
		return runServer(ctx)
	}

	slots, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := slots.Close(); err != nil {
			log.Printf("[WARN] failed to close storage: %v", err)
		}
	}()

	tr := tracker.New(tracker.Params{Slots: slots, DateLayout: opts.DateFormat})
	if err := tr.Load(ctx); err != nil {
		return err
	}
	for _, w := range tr.Warnings() {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	term := prompt.NewTerminal(in, out)
	switch command {
	case "add-job":
		return addJob(ctx, tr, out)
	case "add-recruiter":
		return addRecruiter(ctx, tr, term, out)
	case "list":
		return listRecords(ctx, tr, out)
	case "clear":
		return clearList(ctx, tr, term, out)
	case "export":
		return exportRecords(tr, out)
	}
	return fmt.Errorf("unknown command %q", command)
}

func runServer(ctx context.Context) error {
	log.Printf("[INFO] jobtrack %s", revision)
	slots, err := openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := slots.Close(); err != nil {
			log.Printf("[WARN] failed to close storage: %v", err)
		}
	}()

	wopts := opts.Server.Web
	params := tracker.Params{Slots: slots, DateLayout: opts.DateFormat}
	if wopts.DevTools != "" {
		log.Printf("[INFO] save current tab enabled, browser at %s", wopts.DevTools)
		params.Tabs = tab.NewDevTools(wopts.DevTools, wopts.DevToolsWait)
	}
	tr := tracker.New(params)
	if err := tr.Load(ctx); err != nil {
		return err
	}
	for _, w := range tr.Warnings() {
		log.Printf("[WARN] %s", w)
	}

	srv, err := web.New(web.Config{
		Tracker:        tr,
		Version:        revision,
		PasswordHash:   wopts.PasswordHash,
		TabEnabled:     wopts.DevTools != "",
		TrustedOrigins: wopts.TrustedOrigins,
		RateLimit:      wopts.RateLimit,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx, wopts.Address)
}

func addJob(ctx context.Context, tr *tracker.Tracker, out io.Writer) error {
	o := opts.AddJob
	var (
		job store.Job
		err error
	)
	if o.Tab {
		job, err = tr.SaveJobFromTab(ctx, tab.NewDevTools(o.DevTools, 0))
	} else {
		job, err = tr.SaveJob(ctx, o.Title, o.URL)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved job %q %s\n", job.Title, job.URL)
	return nil
}

func addRecruiter(ctx context.Context, tr *tracker.Tracker, term prompt.Prompter, out io.Writer) error {
	o := opts.AddRecruiter
	var (
		rec store.Recruiter
		err error
	)
	if o.Tab {
		var p prompt.Prompter = term
		if o.Name != "" {
			p = &prompt.Fixed{Answers: []string{o.Name, o.Company}}
		}
		rec, err = tr.SaveRecruiterFromTab(ctx, tab.NewDevTools(o.DevTools, 0), p)
	} else {
		rec, err = tr.SaveRecruiter(ctx, o.Name, o.Company, o.URL)
	}
	if errors.Is(err, tracker.ErrCancelled) {
		fmt.Fprintln(out, "cancelled, nothing saved")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved recruiter %q (%s) %s\n", rec.Name, rec.Company, rec.URL)
	return nil
}

func listRecords(ctx context.Context, tr *tracker.Tracker, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	kind := opts.List.Kind
	if kind == "all" || kind == "jobs" {
		jobs := tr.Jobs()
		fmt.Fprintf(tw, "Saved Jobs (%d)\n", len(jobs))
		for _, j := range jobs {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", j.DateAdded, j.Title, j.URL)
		}
	}
	if kind == "all" || kind == "recruiters" {
		recs := tr.Recruiters()
		fmt.Fprintf(tw, "Saved Recruiters (%d)\n", len(recs))
		for _, r := range recs {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", r.DateAdded, r.Name, r.Company, r.URL)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write list: %w", err)
	}

	backups, err := tr.Backups(ctx)
	if err != nil {
		return err
	}
	if len(backups) > 0 {
		fmt.Fprintf(out, "Unreadable data kept in: %s\n", strings.Join(backups, ", "))
	}
	return nil
}

func clearList(ctx context.Context, tr *tracker.Tracker, term prompt.Prompter, out io.Writer) error {
	if opts.Clear.Yes {
		term = prompt.AssumeYes{Prompter: term}
	}
	clearFn, what := tr.ClearJobs, "job postings"
	if opts.Clear.Kind == "recruiters" {
		clearFn, what = tr.ClearRecruiters, "recruiters"
	}
	cleared, err := clearFn(ctx, term)
	if err != nil {
		return err
	}
	if !cleared {
		fmt.Fprintln(out, "nothing deleted")
		return nil
	}
	fmt.Fprintf(out, "deleted all saved %s\n", what)
	return nil
}

func exportRecords(tr *tracker.Tracker, out io.Writer) (err error) {
	exp, err := codec.ForFormat(opts.Export.Format)
	if err != nil {
		return err
	}
	if opts.Export.Output != "" {
		fh, ferr := os.Create(opts.Export.Output)
		if ferr != nil {
			return fmt.Errorf("failed to create %s: %w", opts.Export.Output, ferr)
		}
		defer func() {
			if cerr := fh.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close %s: %w", opts.Export.Output, cerr)
			}
		}()
		out = fh
	}
	return exp.Export(codec.Document{Jobs: tr.Jobs(), Recruiters: tr.Recruiters()}, out)
}

func openStore() (slotStore, error) {
	if opts.Storage == "files" {
		f, err := persistence.NewFiles(opts.Dir)
		if err != nil {
			return nil, err
		}
		log.Printf("[DEBUG] files storage at %s", opts.Dir)
		return f, nil
	}
	db, err := persistence.NewSQLite(opts.DB)
	if err != nil {
		return nil, err
	}
	log.Printf("[DEBUG] sqlite storage at %s", opts.DB)
	return db, nil
}

// setupLogs configures lgr and returns the writer logs go to
func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		log.Setup(log.Out(io.Discard), log.Err(io.Discard))
		return io.Discard
	}

	var out io.Writer = os.Stderr
	if opts.Log.Filename != "" {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxAge:     opts.Log.MaxAge,
			MaxBackups: opts.Log.MaxBackups,
			Compress:   opts.Log.EnabledCompress,
			LocalTime:  true,
		}
	}

	if opts.Dbg {
		log.Setup(log.Out(out), log.Err(out), log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
		return out
	}
	log.Setup(log.Out(out), log.Err(out), log.Msec)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] got %s, shutting down", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
}
