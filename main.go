package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/harrisonrobin/organizer/pkg/assist"
	"github.com/harrisonrobin/organizer/pkg/auth"
	"github.com/harrisonrobin/organizer/pkg/clock"
	"github.com/harrisonrobin/organizer/pkg/colors"
	"github.com/harrisonrobin/organizer/pkg/config"
	"github.com/harrisonrobin/organizer/pkg/google"
	"github.com/harrisonrobin/organizer/pkg/index"
	"github.com/harrisonrobin/organizer/pkg/model"
	"github.com/harrisonrobin/organizer/pkg/persist"
	"github.com/harrisonrobin/organizer/pkg/store"
	"github.com/harrisonrobin/organizer/pkg/suggest"
	"github.com/harrisonrobin/organizer/pkg/util"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	okColor    = color.New(color.FgGreen)
	errColor   = color.New(color.FgRed)
	infoColor  = color.New(color.FgYellow)
)

func notify(msg string, ok bool) {
	if ok {
		okColor.Println(msg)
		return
	}
	errColor.Println(msg)
}

func main() {
	// 1. Parse Flags
	doAuth := flag.Bool("auth", false, "Authenticate with Google (Drive app data and Calendar)")
	runPass := flag.Bool("run", false, "Run one analysis pass and print suggestions")
	watch := flag.Bool("watch", false, "Keep analyzing in the foreground until interrupted")
	list := flag.Bool("list", false, "List pending suggestions")
	listTasks := flag.Bool("tasks", false, "List open tasks")
	listGroceries := flag.Bool("groceries", false, "List the inventory and shopping list")
	showInsights := flag.Bool("insights", false, "Show completion statistics, a productivity score and recommendations")
	accept := flag.String("accept", "", "Accept the suggestion with this id")
	action := flag.String("action", "", "Action to take when accepting (e.g. completeTask)")
	dismiss := flag.String("dismiss", "", "Dismiss the suggestion with this id")
	reason := flag.String("reason", "", "Reason for dismissing")
	addTask := flag.String("add-task", "", "Add a task with this title")
	category := flag.String("category", "", "Category for -add-task or -add-grocery")
	due := flag.String("due", "", "Due date for -add-task (today, tomorrow, 2006-01-02 [15:04], +PT2H)")
	edit := flag.Int64("edit", 0, "Edit the task with this id using -title, -category, -repeat and -due")
	title := flag.String("title", "", "New title for -edit")
	repeat := flag.String("repeat", "", "New repeat for -edit (never, daily, weekly, monthly)")
	move := flag.Int64("move", 0, "Move the task with this id to position -to")
	to := flag.Int("to", 1, "Position for -move, 1 is the top of the list")
	complete := flag.Int64("complete", 0, "Toggle completion of the task with this id")
	deleteTask := flag.Int64("delete", 0, "Delete the task with this id")
	addGrocery := flag.String("add-grocery", "", "Add a grocery item to the shopping list")
	qty := flag.Float64("qty", 1, "Quantity for -add-grocery or -consume")
	unit := flag.String("unit", "", "Unit for -add-grocery")
	bought := flag.String("bought", "", "Mark the grocery item with this id as purchased")
	need := flag.String("need", "", "Put the grocery item with this id on the shopping list")
	consume := flag.String("consume", "", "Use up -qty of the grocery item with this id")
	doSync := flag.Bool("sync", false, "Pull from and push to Google Drive now")
	storeKind := flag.String("store", "", "Local store backend: file or sqlite (overrides config)")
	initConfig := flag.Bool("init-config", false, "Write the effective configuration to the config file and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Handle Authentication
	if *doAuth {
		if err := auth.RemoveToken(); err != nil {
			log.Fatalf("could not delete existing token, error %v. Please delete it manually", err)
		}
		if err := auth.Authorize(ctx); err != nil {
			log.Fatalf("Authentication failed: %v", err)
		}
		path, _ := auth.TokenPath()
		log.Printf("Authentication successful! Token saved to %s", path)
		return
	}

	// 3. Configuration (Priority: Flag > Env > Config > Default)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *storeKind != "" {
		cfg.Store = *storeKind
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}
	if *initConfig {
		if err := config.Save(cfg); err != nil {
			log.Fatalf("Error writing config: %v", err)
		}
		path, _ := config.GetConfigPath()
		log.Printf("Configuration written to %s", path)
		return
	}

	// 4. Persistence
	local, closeLocal, err := openLocal(cfg)
	if err != nil {
		log.Fatalf("Error opening local store: %v", err)
	}
	defer closeLocal()

	var remote persist.Remote
	if cfg.DriveSync || *doSync {
		remote = openDrive(ctx, cfg)
	}
	syncer := persist.NewSyncer(local, remote, notify)
	syncer.Start(ctx)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := syncer.Close(closeCtx); err != nil {
			log.Printf("Warning: final sync failed: %v", err)
		}
	}()

	state, err := syncer.Load(ctx)
	if err != nil {
		log.Fatalf("Error loading data: %v", err)
	}
	st := store.New(clock.System())
	st.Restore(state)

	// 5. Engine
	opts := assist.Options{
		Window: assist.Window{
			StartHour:   cfg.WorkStartHour,
			EndHour:     cfg.WorkEndHour,
			HorizonDays: cfg.HorizonDays,
			SlotMinutes: cfg.SlotMinutes,
		},
		AnalysisInterval: cfg.AnalysisInterval(),
		SweepInterval:    cfg.SweepInterval(),
		Saver:            syncer,
		Notify:           notify,
	}
	if cfg.Calendar != "" && (*runPass || *watch) {
		if busy, err := google.NewCalendarBusy(ctx, cfg.Calendar); err != nil {
			log.Printf("Warning: calendar busy times unavailable: %v", err)
		} else {
			busy.Start(ctx, cfg.AnalysisInterval(), time.Duration(cfg.HorizonDays)*24*time.Hour)
			opts.Busy = busy
		}
	}
	engine := assist.NewEngine(st, opts)

	// 6. Commands
	if err := run(ctx, engine, syncer, command{
		runPass: *runPass, watch: *watch, list: *list,
		tasks: *listTasks, groceries: *listGroceries, insights: *showInsights,
		accept: *accept, action: *action, dismiss: *dismiss, reason: *reason,
		addTask: *addTask, category: *category, due: *due,
		edit: *edit, title: *title, repeat: *repeat,
		move: *move, to: *to,
		complete: *complete, deleteTask: *deleteTask,
		addGrocery: *addGrocery, qty: *qty, unit: *unit,
		bought: *bought, need: *need, consume: *consume,
		sync: *doSync,
	}); err != nil {
		errColor.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	runPass, watch, list bool
	tasks, groceries     bool
	insights             bool
	accept, action       string
	dismiss, reason      string
	addTask, category    string
	due                  string
	edit, move           int64
	title, repeat        string
	to                   int
	complete, deleteTask int64
	addGrocery, unit     string
	qty                  float64
	bought, need         string
	consume              string
	sync                 bool
}

func run(ctx context.Context, e *assist.Engine, syncer *persist.Syncer, c command) error {
	switch {
	case c.accept != "":
		msg, err := e.Accept(ctx, c.accept, c.action)
		if err != nil {
			return err
		}
		if msg == "" {
			infoColor.Println("The item this suggestion referred to no longer exists.")
		}
	case c.dismiss != "":
		if err := e.Dismiss(ctx, c.dismiss, c.reason); err != nil {
			return err
		}
		okColor.Println("Suggestion dismissed.")
	case c.addTask != "":
		task := model.Task{Title: c.addTask, Category: c.category}
		if c.due != "" {
			d, hasTime, err := util.ParseDue(c.due, time.Now())
			if err != nil {
				return err
			}
			task.Due, task.HasTime = &d, hasTime
		}
		var added model.Task
		if err := e.Update(ctx, func(s *store.Store) error {
			added = s.AddTask(task)
			return nil
		}); err != nil {
			return err
		}
		okColor.Printf("Added task %d: %s\n", added.ID, added.Title)
	case c.edit != 0:
		if err := e.Update(ctx, func(s *store.Store) error { return editTask(s, c) }); err != nil {
			return err
		}
		okColor.Println("Task updated.")
	case c.move != 0:
		if err := e.Update(ctx, func(s *store.Store) error { return s.MoveTask(c.move, c.to-1) }); err != nil {
			return err
		}
		okColor.Println("Task moved.")
	case c.complete != 0:
		t, err := e.ToggleTask(ctx, c.complete)
		if err != nil {
			return err
		}
		if t.Completed {
			okColor.Printf("Completed %q\n", t.Title)
		} else {
			infoColor.Printf("Reopened %q\n", t.Title)
		}
	case c.deleteTask != 0:
		if _, err := e.DeleteTask(ctx, c.deleteTask); err != nil {
			return err
		}
		okColor.Println("Task deleted.")
	case c.addGrocery != "":
		var item model.GroceryItem
		if err := e.Update(ctx, func(s *store.Store) error {
			item = s.AddListItem(c.addGrocery, c.qty, c.unit)
			if c.category != "" {
				g, _ := s.Grocery(item.ID)
				g.Category = c.category
			}
			return nil
		}); err != nil {
			return err
		}
		okColor.Printf("Added %s to shopping list (%s)\n", item.Name, item.ID)
	case c.bought != "":
		if err := e.Update(ctx, func(s *store.Store) error { return s.MarkPurchased(c.bought) }); err != nil {
			return err
		}
		okColor.Println("Marked as purchased.")
	case c.need != "":
		if err := e.Update(ctx, func(s *store.Store) error { return s.AddToShoppingList(c.need) }); err != nil {
			return err
		}
		okColor.Println("Added to shopping list.")
	case c.consume != "":
		var archived bool
		if err := e.Update(ctx, func(s *store.Store) (err error) {
			archived, err = s.ConsumeGrocery(c.consume, c.qty)
			return err
		}); err != nil {
			return err
		}
		if archived {
			infoColor.Println("Item used up and archived.")
		} else {
			okColor.Println("Quantity updated.")
		}
	case c.sync:
		if err := syncer.Push(ctx, e.Snapshot()); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		okColor.Println("Synced with Google Drive.")
	case c.watch:
		titleColor.Println("Watching for suggestions. Press Ctrl+C to stop.")
		return e.Run(ctx)
	case c.runPass:
		report, err := e.RunPass(ctx)
		if err != nil {
			return err
		}
		if report.Changed() {
			infoColor.Println("Suggestions updated.")
		}
		printSuggestions(e)
	case c.list:
		printSuggestions(e)
	case c.tasks:
		e.View(func(s *store.Store) { printTasks(s.Tasks, s.Now()) })
	case c.groceries:
		e.View(func(s *store.Store) { printGroceries(s.Groceries, s.Now()) })
	case c.insights:
		e.View(func(s *store.Store) { printInsights(assist.ComputeInsights(s, s.Now())) })
	default:
		flag.Usage()
	}
	return nil
}

// editTask applies the edit flags that were given, keeping the other fields.
func editTask(s *store.Store, c command) error {
	title, category, repeat := c.title, c.category, model.Repeat(c.repeat)
	if t, ok := s.Task(c.edit); ok {
		if title == "" {
			title = t.Title
		}
		if category == "" {
			category = t.Category
		}
		if repeat == "" {
			repeat = t.Repeat
		}
	}
	if err := s.UpdateTask(c.edit, title, category, repeat); err != nil {
		return err
	}
	if c.due == "" {
		return nil
	}
	d, hasTime, err := util.ParseDue(c.due, s.Now())
	if err != nil {
		return err
	}
	return s.SetDue(c.edit, &d, hasTime)
}

func printSuggestions(e *assist.Engine) {
	printSection("Tasks", e.Suggestions(suggest.ForTasks))
	printSection("Groceries", e.Suggestions(suggest.ForGroceries))
}

func printSection(title string, items []suggest.Suggestion) {
	titleColor.Printf("%s (%d)\n", title, len(items))
	for _, s := range items {
		fmt.Printf("  [%s] %s\n", s.ID, s.Title)
		fmt.Printf("      %s\n", s.Description)
		for _, a := range s.Actions {
			infoColor.Printf("      -accept %s -action %s  (%s)\n", s.ID, a.Action, a.Label)
		}
	}
}

func printTasks(tasks []model.Task, now time.Time) {
	palette := colors.NewPalette()
	open := 0
	for _, t := range tasks {
		if !t.Completed {
			open++
		}
	}
	titleColor.Printf("Tasks (%d)\n", open)
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		fmt.Printf("  %d  %s", t.ID, t.Title)
		if t.Category != "" {
			palette.Color(t.Category).Printf(" [%s]", t.Category)
		}
		if t.Due != nil {
			layout := "Jan 2"
			if t.HasTime {
				layout = "Jan 2 15:04"
			}
			if assist.IsOverdue(t, now) {
				errColor.Printf(" overdue since %s", t.Due.Format(layout))
			} else {
				fmt.Printf(" due %s", t.Due.Format(layout))
			}
		}
		fmt.Println()
	}
}

func printGroceries(items []model.GroceryItem, now time.Time) {
	palette := colors.NewPalette()
	var stock, list []model.GroceryItem
	for _, g := range items {
		if g.OnShoppingList() {
			list = append(list, g)
		}
		if g.InStock {
			stock = append(stock, g)
		}
	}
	for _, section := range []struct {
		title string
		items []model.GroceryItem
	}{{"Inventory", stock}, {"Shopping list", list}} {
		titleColor.Printf("%s (%d)\n", section.title, len(section.items))
		for _, g := range section.items {
			fmt.Printf("  %s  %s x%s%s", g.ID, g.Name, strconv.FormatFloat(g.Quantity, 'f', -1, 64), g.Unit)
			if g.Category != "" {
				palette.Color(g.Category).Printf(" [%s]", g.Category)
			}
			if g.Expiry != nil && g.InStock {
				if g.Expiry.Sub(now) <= 3*24*time.Hour {
					errColor.Printf(" expires %s", g.Expiry.Format("Jan 2"))
				} else {
					fmt.Printf(" expires %s", g.Expiry.Format("Jan 2"))
				}
			}
			fmt.Println()
		}
	}
}

func printInsights(in assist.Insights) {
	palette := colors.NewPalette()
	titleColor.Println("Insights")
	fmt.Printf("  Tasks: %d completed, %d pending\n", in.Completed, in.Pending)
	if len(in.Categories) > 0 {
		fmt.Print("  Categories:")
		for _, c := range in.Categories {
			palette.Color(c.Category).Printf(" %s %d", c.Category, c.Count)
		}
		fmt.Println()
	}
	fmt.Printf("  Groceries: %d used, %d expired\n", in.GroceriesUsed, in.GroceriesExpired)

	scoreColor := errColor
	switch {
	case in.Score >= 70:
		scoreColor = okColor
	case in.Score >= 40:
		scoreColor = infoColor
	}
	fmt.Print("  Productivity score: ")
	scoreColor.Printf("%d/100\n", in.Score)

	titleColor.Printf("Recommendations (%d)\n", len(in.Recommendations))
	for _, r := range in.Recommendations {
		fmt.Printf("  %s\n", r.Title)
		fmt.Printf("      %s\n", r.Description)
	}
}

func openLocal(cfg *config.Config) (persist.Local, func(), error) {
	path, err := cfg.ResolveDataPath()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store == config.StoreSQLite {
		db, err := persist.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return db, func() {
			if err := db.Close(); err != nil {
				log.Printf("Warning: failed to close database: %v", err)
			}
		}, nil
	}
	return persist.NewFileStore(path), func() {}, nil
}

// openDrive returns nil when Drive is unavailable; the app keeps working locally.
func openDrive(ctx context.Context, cfg *config.Config) persist.Remote {
	idx, err := index.NewFileIndex()
	if err != nil {
		log.Printf("Warning: failed to initialize Drive file index: %v", err)
	}
	remote, err := google.NewDriveRemote(ctx, cfg.DriveFile, idx)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthorized) {
			infoColor.Println("Google Drive sync is enabled but not authorized. Run with -auth.")
		} else {
			log.Printf("Warning: Google Drive unavailable: %v", err)
		}
		return nil
	}
	return remote
}
