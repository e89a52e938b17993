package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lhardy/cadence/internal/config"
	"github.com/lhardy/cadence/internal/engine"
	"github.com/lhardy/cadence/internal/library"
	"github.com/lhardy/cadence/internal/session"
	"github.com/lhardy/cadence/internal/store"
	"github.com/lhardy/cadence/internal/views"
)

type app struct {
	store    *store.Manager
	scanner  *library.Scanner
	scope    []library.FolderRef
	ctl      *session.Controller
	overlaid []library.Track
	query    views.Query
	current  []library.Track
}

func main() {
	silent := flag.Bool("silent", false, "use a silent engine (no audio output)")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(*silent); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(silent bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	st, err := store.Open()
	if err != nil {
		return err
	}
	defer st.Close()

	var eng engine.Interface
	if silent {
		eng = engine.NewMock()
	} else {
		eng = engine.NewLocal()
	}
	defer eng.Close()

	a := &app{
		store:   st,
		scanner: library.NewScanner(library.NewFSIndex("primary", cfg.MusicDir)),
		query:   views.Query{Kind: views.KindAll},
	}
	for _, f := range cfg.Folders {
		a.scope = append(a.scope, library.ParseFolderRef(f))
	}

	a.ctl = session.New(eng, st, session.Options{
		SampleInterval: cfg.Session.SampleInterval(),
		SaveThreshold:  cfg.Session.SaveThreshold(),
		SaveDebounce:   cfg.Session.SaveDebounce(),
		RestoreSettle:  cfg.Session.RestoreSettle(),
	})
	defer a.ctl.Close()

	a.rescan()
	a.applyView()
	a.ctl.RestoreFromStore(st)
	a.ctl.Start()

	fmt.Println("cadence - type 'help' for commands")
	a.loop()
	return nil
}

// rescan rebuilds the overlaid track set from a fresh scan.
func (a *app) rescan() {
	tracks := a.scanner.Scan(a.scope)

	overrides, err := a.store.Overrides()
	if err != nil {
		log.Warn().Err(err).Msg("overrides load failed")
	}
	favorites, err := a.store.FavoriteIDs()
	if err != nil {
		log.Warn().Err(err).Msg("favorites load failed")
	}

	a.overlaid = library.ApplyOverlay(tracks, overrides, favorites)
}

// applyView assembles the active view and hands it to the controller.
func (a *app) applyView() {
	a.current = views.Assemble(a.overlaid, a.query)
	a.ctl.SetPlaylist(a.current)
}

func (a *app) loop() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "q":
			return
		case "help":
			printHelp()
		case "list", "ls":
			a.printList()
		case "play":
			a.cmdPlay(args)
		case "pause":
			a.ctl.Pause()
		case "resume":
			a.ctl.Resume()
		case "next":
			a.ctl.Next()
		case "prev":
			a.ctl.Previous()
		case "seek":
			a.cmdSeek(args)
		case "repeat":
			fmt.Println("repeat:", a.ctl.ToggleRepeatMode())
		case "shuffle":
			fmt.Println("shuffle:", a.ctl.ToggleShuffleMode())
		case "fav":
			a.cmdFav(args)
		case "edit":
			a.cmdEdit(args)
		case "view":
			a.cmdView(args)
		case "pl":
			a.cmdPlaylist(args)
		case "search":
			a.cmdSearch(args)
		case "history":
			a.cmdHistory()
		case "status":
			a.printStatus()
		default:
			fmt.Println("unknown command:", cmd)
		}
	}
}

func (a *app) cmdPlay(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: play <index>")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("usage: play <index>")
		return
	}
	if err := a.ctl.Play(i); err != nil {
		fmt.Println(err)
	}
}

func (a *app) cmdSeek(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: seek <seconds>")
		return
	}
	secs, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Println("usage: seek <seconds>")
		return
	}
	a.ctl.SeekTo(time.Duration(secs) * time.Second)
}

func (a *app) cmdFav(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: fav <index>")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= len(a.current) {
		fmt.Println("no such track")
		return
	}
	fav, err := a.store.ToggleFavorite(a.current[i].ID)
	if err != nil {
		log.Warn().Err(err).Msg("favorite toggle failed")
		return
	}
	fmt.Printf("favorite %q: %v\n", a.current[i].DisplayTitle(), fav)
	a.rescan()
	a.applyView()
}

func (a *app) cmdView(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: view all|favorites|artist <name>|album <name>")
		return
	}
	switch args[0] {
	case "all":
		a.query = views.Query{Kind: views.KindAll, Sort: a.query.Sort}
	case "favorites":
		a.query = views.Query{Kind: views.KindFavorites, Sort: a.query.Sort}
	case "artist", "album":
		kind := views.KindArtist
		if args[0] == "album" {
			kind = views.KindAlbum
		}
		if len(args) < 2 {
			for _, key := range views.GroupKeys(a.overlaid, kind, views.SortTitleAsc) {
				fmt.Println(" ", key)
			}
			return
		}
		a.query = views.Query{Kind: kind, GroupKey: strings.Join(args[1:], " "), Sort: a.query.Sort}
	default:
		fmt.Println("unknown view:", args[0])
		return
	}
	a.applyView()
	a.printList()
}

func (a *app) cmdEdit(args []string) {
	if len(args) < 2 {
		fmt.Println("usage: edit <index> title|artist|album <value>  (or: edit <index> clear)")
		return
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 0 || i >= len(a.current) {
		fmt.Println("no such track")
		return
	}
	id := a.current[i].ID

	if args[1] == "clear" {
		if err := a.store.DeleteOverride(id); err != nil {
			log.Warn().Err(err).Msg("override delete failed")
			return
		}
		a.rescan()
		a.applyView()
		return
	}

	if len(args) < 3 {
		fmt.Println("usage: edit <index> title|artist|album <value>")
		return
	}
	value := strings.Join(args[2:], " ")
	overrides, err := a.store.Overrides()
	if err != nil {
		log.Warn().Err(err).Msg("overrides load failed")
		return
	}
	o := overrides[id]
	switch args[1] {
	case "title":
		o.Title = &value
	case "artist":
		o.Artist = &value
	case "album":
		o.Album = &value
	default:
		fmt.Println("unknown field:", args[1])
		return
	}
	if err := a.store.SaveOverride(id, o); err != nil {
		log.Warn().Err(err).Msg("override save failed")
		return
	}
	a.rescan()
	a.applyView()
}

func (a *app) cmdPlaylist(args []string) {
	if len(args) == 0 {
		fmt.Println("usage: pl list|new <name>|add <name> <index>|del <name>|view <name>")
		return
	}
	switch args[0] {
	case "list":
		playlists, err := a.store.Playlists()
		if err != nil {
			log.Warn().Err(err).Msg("playlists load failed")
			return
		}
		for _, p := range playlists {
			ids, _ := a.store.PlaylistTrackIDs(p.ID)
			fmt.Printf("  %s (%d tracks, updated %s)\n", p.Name, len(ids), humanize.Time(p.UpdatedAt))
		}
	case "new":
		if len(args) < 2 {
			fmt.Println("usage: pl new <name>")
			return
		}
		if _, err := a.store.CreatePlaylist(strings.Join(args[1:], " "), ""); err != nil {
			fmt.Println(err)
		}
	case "add":
		if len(args) < 3 {
			fmt.Println("usage: pl add <name> <index>")
			return
		}
		i, err := strconv.Atoi(args[len(args)-1])
		if err != nil || i < 0 || i >= len(a.current) {
			fmt.Println("no such track")
			return
		}
		p := a.findPlaylist(strings.Join(args[1:len(args)-1], " "))
		if p == nil {
			return
		}
		if err := a.store.AppendPlaylistTracks(p.ID, a.current[i].ID); err != nil {
			log.Warn().Err(err).Msg("playlist append failed")
		}
	case "del":
		if len(args) < 2 {
			fmt.Println("usage: pl del <name>")
			return
		}
		p := a.findPlaylist(strings.Join(args[1:], " "))
		if p == nil {
			return
		}
		if err := a.store.DeletePlaylist(p.ID); err != nil {
			log.Warn().Err(err).Msg("playlist delete failed")
		}
	case "view":
		if len(args) < 2 {
			fmt.Println("usage: pl view <name>")
			return
		}
		p := a.findPlaylist(strings.Join(args[1:], " "))
		if p == nil {
			return
		}
		ids, err := a.store.PlaylistTrackIDs(p.ID)
		if err != nil {
			log.Warn().Err(err).Msg("playlist load failed")
			return
		}
		a.query = views.Query{Kind: views.KindCustom, TrackIDs: ids, Sort: a.query.Sort}
		a.applyView()
		a.printList()
	default:
		fmt.Println("unknown playlist command:", args[0])
	}
}

func (a *app) findPlaylist(name string) *store.Playlist {
	playlists, err := a.store.Playlists()
	if err != nil {
		log.Warn().Err(err).Msg("playlists load failed")
		return nil
	}
	for i := range playlists {
		if playlists[i].Name == name {
			return &playlists[i]
		}
	}
	fmt.Println("no such playlist:", name)
	return nil
}

func (a *app) cmdSearch(args []string) {
	q := strings.Join(args, " ")
	a.query.Search = q
	if q != "" {
		if err := a.store.AddSearch(q); err != nil {
			log.Warn().Err(err).Msg("search history save failed")
		}
	}
	a.applyView()
	a.printList()
}

func (a *app) cmdHistory() {
	items, err := a.store.Searches()
	if err != nil {
		log.Warn().Err(err).Msg("search history load failed")
		return
	}
	for _, item := range items {
		fmt.Printf("  %s (%s)\n", item.Query, humanize.Time(item.SearchedAt))
	}
}

func (a *app) printList() {
	for i, t := range a.current {
		marker := "  "
		if i == a.ctl.CurrentIndex() {
			marker = "> "
		}
		fav := " "
		if t.Favorite {
			fav = "*"
		}
		fmt.Printf("%s%3d %s %s - %s\n", marker, i, fav, t.Artist, t.DisplayTitle())
	}
}

func (a *app) printStatus() {
	fmt.Printf("state: %s", a.ctl.State())
	if t := a.ctl.CurrentTrack(); t != nil {
		fmt.Printf("  %s - %s  %s / %s",
			t.Artist, t.DisplayTitle(),
			formatDuration(a.ctl.Position()), formatDuration(a.ctl.Duration()))
	}
	fmt.Printf("  repeat: %s  shuffle: %v\n", a.ctl.RepeatMode(), a.ctl.Shuffle())
}

func printHelp() {
	fmt.Println(`commands:
  list                         show the active view
  play <index>                 play a track from the view
  pause / resume / next / prev
  seek <seconds>               seek within the current track
  repeat                       cycle repeat off/all/one
  shuffle                      toggle shuffle
  fav <index>                  toggle favorite
  edit <index> title|artist|album <value>
  edit <index> clear           drop all overrides for the track
  view all|favorites|artist [name]|album [name]
  pl list|new <name>|add <name> <index>|del <name>|view <name>
  search [text]                filter the view (empty clears)
  history                      show recent searches
  status                       show playback state
  quit`)
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
