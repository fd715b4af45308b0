//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"screenwriter/internal/backend"
	"screenwriter/internal/config"
	"screenwriter/internal/crash"
	"screenwriter/internal/editor"
	"screenwriter/internal/export"
	applog "screenwriter/internal/log"
	"screenwriter/internal/script"
	"screenwriter/internal/storage"
	"screenwriter/internal/version"
	"screenwriter/internal/workspace"
)

const appTitle = "Screenwriter"

// Run starts the Fyne desktop editor. Pass an optional project directory to
// open immediately.
func Run(projectDir string) error {
	cfg, token, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	var client *backend.Client
	if cfg.Backend.BaseURL != "" {
		client = backend.NewClientFromConfig(cfg.Backend, token)
	}
	ws := workspace.New(client)
	defer func() { _ = ws.Close() }()
	unsaved := func() string {
		if s := ws.Session(); s != nil {
			return s.Document()
		}
		return ""
	}
	defer func() { crash.RecoverDraft(ws.Project(), unsaved) }()

	fyneApp := app.NewWithID("screenwriter")
	w := fyneApp.NewWindow(appTitle)
	prefs := fyneApp.Preferences()
	winW := max(prefs.IntWithFallback("window.width", 1200), 800)
	winH := max(prefs.IntWithFallback("window.height", 800), 600)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	position := widget.NewLabel("")

	// Editor and live preview share one session; a placeholder session keeps
	// the widgets valid while no project is open.
	entry := newScreenplayEntry(editor.NewSession(editor.Draft{}, nil))
	preview := widget.NewRichText()
	preview.Wrapping = fyne.TextWrapWord

	matchTitle := widget.NewLabel("")
	matchTitle.TextStyle = fyne.TextStyle{Bold: true}
	matchBody := widget.NewLabel("")
	matchBody.Wrapping = fyne.TextWrapWord
	matchCard := widget.NewCard("Scene match", "", container.NewVBox(matchTitle, matchBody))
	matchCard.Hide()
	showMatch := func(sm *backend.SceneMatch) {
		if sm == nil {
			matchCard.Hide()
			return
		}
		matchCard.SetSubTitle(fmt.Sprintf("%d%% match", sm.MatchScore))
		matchTitle.SetText(fmt.Sprintf("%s (%d) · %s", sm.Film, sm.Year, sm.Director))
		body := sm.Text
		if sm.SceneTimestamp != "" {
			body = "at " + sm.SceneTimestamp + "\n\n" + body
		}
		matchBody.SetText(body)
		matchCard.Show()
	}

	var matcher *backend.SceneMatcher
	if client != nil {
		matcher = backend.NewSceneMatcher(client, cfg.Editor.MatchDebounce(), func(sm *backend.SceneMatch) {
			fyne.Do(func() { showMatch(sm) })
		})
		matcher.SetEnabled(cfg.Editor.SceneMatch)
		defer matcher.Close()
	}

	refresh := func() {
		sess := entry.sess
		preview.Segments = previewSegments(sess.Document(), sess.Mode())
		preview.Refresh()
		row, col := sess.RowCol()
		kind := sess.CurrentLine().Kind
		position.SetText(fmt.Sprintf("Ln %d, Col %d · %s", row+1, col+1, kind))
		if matcher != nil {
			matcher.Update(sess.Document())
		}
	}
	entry.onUpdate = refresh

	// Toolbar: one button per format.
	var buttons []fyne.CanvasObject
	for _, f := range editor.Formats() {
		buttons = append(buttons, widget.NewButton(f.Label, func() {
			entry.InsertFormat(f)
			w.Canvas().Focus(entry)
		}))
	}
	toolbar := container.NewHScroll(container.NewHBox(buttons...))

	editorSplit := container.NewHSplit(entry, container.NewVScroll(preview))
	editorSplit.Offset = 0.55
	editorContent := container.NewBorder(toolbar, container.NewHBox(status, widget.NewSeparator(), position), nil,
		container.NewVBox(matchCard), editorSplit)
	root := container.NewStack()
	w.SetContent(root)

	showEditor := func() {
		root.Objects = []fyne.CanvasObject{editorContent}
		root.Refresh()
		w.Canvas().Focus(entry)
	}
	var showDashboard func()
	var closeProjItem *fyne.MenuItem

	projectOpened := func() {
		ph := ws.Project()
		entry.SetSession(ws.Session())
		refresh()
		w.SetTitle(fmt.Sprintf("%s - %s", appTitle, ph.Project.Title))
		status.SetText("Opened " + ph.Root)
		closeProjItem.Disabled = false
		addRecentProject(prefs, ph.Root)
		showEditor()
	}
	openDir := func(dir string) {
		abs, _ := filepath.Abs(dir)
		l.Info("open project", slog.String("root", abs))
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ws.Open(ctx, abs); err != nil {
			l.Error("open project failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		projectOpened()
	}
	requireProject := func(what string) bool {
		if ws.Session() == nil {
			dialog.ShowInformation(what, "No project open.", w)
			return false
		}
		return true
	}
	requireBackend := func(what string) bool {
		if client == nil {
			dialog.ShowInformation(what, "No backend configured. Set backend.base_url in the config file.", w)
			return false
		}
		return true
	}

	// File menu
	newItem := fyne.NewMenuItem("New…", func() {
		l.Info("menu: new project")
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri == nil {
				return
			}
			dir := uri.Path()
			titleEntry := widget.NewEntry()
			titleEntry.SetPlaceHolder(editor.DefaultTitle)
			synopsisEntry := widget.NewMultiLineEntry()
			synopsisEntry.SetPlaceHolder("What is your story about?")
			modeSelect := widget.NewSelect([]string{string(script.ModeScreenplay), string(script.ModeNovel)}, nil)
			modeSelect.SetSelected(string(script.ParseMode(cfg.General.DefaultMode)))
			form := dialog.NewForm("New Project", "Create", "Cancel", []*widget.FormItem{
				widget.NewFormItem("Title", titleEntry),
				widget.NewFormItem("Synopsis", synopsisEntry),
				widget.NewFormItem("Mode", modeSelect),
			}, func(ok bool) {
				if !ok {
					return
				}
				title := strings.TrimSpace(titleEntry.Text)
				synopsis := strings.TrimSpace(synopsisEntry.Text)
				mode := script.ParseMode(modeSelect.Selected)
				status.SetText("Checking originality…")
				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()
					err := ws.Create(ctx, dir, title, synopsis, mode)
					fyne.Do(func() {
						var noe *workspace.NotOriginalError
						switch {
						case errors.As(err, &noe):
							status.SetText("Synopsis rejected")
							dialog.ShowInformation("Not original enough",
								fmt.Sprintf("%s\n\nClosest match:\n%s", noe.Error(), noe.MatchText), w)
						case err != nil:
							dialog.ShowError(err, w)
						default:
							projectOpened()
						}
					})
				}()
			}, w)
			form.Resize(fyne.NewSize(520, 360))
			form.Show()
		}, w)
		fd.Show()
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		l.Info("menu: open project")
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uri != nil {
				openDir(uri.Path())
			}
		}, w)
		fd.Show()
	})
	saveItem := fyne.NewMenuItem("Save", func() {
		if !requireProject("Save") {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := ws.Save(ctx); err != nil {
			l.Error("save failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved " + time.Now().Format("15:04:05"))
	})
	searchItem := fyne.NewMenuItem("Search…", func() {
		if !requireProject("Search") {
			return
		}
		showSearchDialog(w, ws, func(lineNo int) {
			doc := entry.sess.Document()
			entry.sess.SetCursor(editor.OffsetAt(doc, lineNo-1, 0))
			entry.push()
			refresh()
			w.Canvas().Focus(entry)
		})
	})
	closeProjItem = fyne.NewMenuItem("Close Project", func() {
		if ws.Session() == nil {
			return
		}
		closeProject := func() {
			_ = ws.Close()
			entry.SetSession(editor.NewSession(editor.Draft{}, nil))
			showMatch(nil)
			w.SetTitle(appTitle)
			status.SetText("Project closed.")
			closeProjItem.Disabled = true
			showDashboard()
		}
		if ws.Session().Dirty() {
			dialog.ShowConfirm("Close Project", "Discard unsaved changes?", func(ok bool) {
				if ok {
					closeProject()
				}
			}, w)
			return
		}
		closeProject()
	})
	closeProjItem.Disabled = true
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}
	closeProjItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierControl}
	homeItem := fyne.NewMenuItem("Home", func() { showDashboard() })
	fileMenu := fyne.NewMenu("File", homeItem, newItem, openItem, saveItem, fyne.NewMenuItemSeparator(), searchItem, fyne.NewMenuItemSeparator(), closeProjItem)

	// Tools menu: backend features run off the UI goroutine.
	runRemote := func(what string, call func(ctx context.Context) (string, error)) {
		if !requireBackend(what) {
			return
		}
		status.SetText(what + "…")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout()+5*time.Second)
			defer cancel()
			msg, err := call(ctx)
			fyne.Do(func() {
				if err != nil {
					l.Warn("backend call failed", slog.String("op", what), slog.Any("err", err))
					status.SetText(what + " failed")
					dialog.ShowError(err, w)
					return
				}
				status.SetText("Ready")
				showText(w, what, msg)
			})
		}()
	}
	matchItem := fyne.NewMenuItem("Scene Match", nil)
	toggleMatch := func() {
		if !requireBackend("Scene Match") {
			return
		}
		on := !matcher.Enabled()
		matcher.SetEnabled(on)
		matchItem.Checked = on
		if on {
			matcher.Update(entry.sess.Document())
		}
		w.MainMenu().Refresh()
	}
	matchItem.Action = toggleMatch
	matchItem.Checked = matcher != nil && matcher.Enabled()
	matchItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyT, Modifier: fyne.KeyModifierControl}
	analyzeItem := fyne.NewMenuItem("Analyze Script", func() {
		if !requireProject("Analyze Script") {
			return
		}
		doc := entry.sess.Document()
		runRemote("Analyze Script", func(ctx context.Context) (string, error) {
			a, err := client.AnalyzeScript(ctx, backend.SceneRequest{SceneText: doc})
			if err != nil {
				return "", err
			}
			return formatAnalysis(a), nil
		})
	})
	letterItem := fyne.NewMenuItem("Query Letter", func() {
		if !requireProject("Query Letter") {
			return
		}
		req := backend.SynopsisRequest{Title: entry.sess.Title(), Synopsis: entry.sess.Synopsis()}
		runRemote("Query Letter", func(ctx context.Context) (string, error) {
			q, err := client.GenerateQuery(ctx, req)
			if err != nil {
				return "", err
			}
			return q.Letter, nil
		})
	})
	storyboardItem := fyne.NewMenuItem("Storyboard Current Scene", func() {
		if !requireProject("Storyboard") {
			return
		}
		scene := entry.sess.CurrentScene()
		runRemote("Storyboard", func(ctx context.Context) (string, error) {
			sb, err := client.GenerateStoryboard(ctx, backend.SceneRequest{SceneText: scene})
			if err != nil {
				return "", err
			}
			return sb.ImageURL + "\n\n" + sb.PromptUsed, nil
		})
	})
	videoItem := fyne.NewMenuItem("Video for Current Scene", func() {
		if !requireProject("Video") {
			return
		}
		scene := entry.sess.CurrentScene()
		runRemote("Video", func(ctx context.Context) (string, error) {
			v, err := client.GenerateVideo(ctx, backend.SceneRequest{SceneText: scene})
			if err != nil {
				return "", err
			}
			return v.VideoURL + "\n\n" + v.Style, nil
		})
	})
	toolsMenu := fyne.NewMenu("Tools", matchItem, fyne.NewMenuItemSeparator(), analyzeItem, letterItem, storyboardItem, videoItem)

	// Export menu
	saveFile := func(title, defName, ext string, write func(path string) error) {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			if err := write(outPath); err != nil {
				dialog.ShowError(err, w)
				return
			}
			dialog.ShowInformation(title, "Exported to "+outPath, w)
		}, w)
		save.SetFileName(defName)
		save.SetFilter(fstorage.NewExtensionFileFilter([]string{ext}))
		save.Show()
	}
	exportPDFItem := fyne.NewMenuItem("Screenplay PDF…", func() {
		if !requireProject("Export PDF") {
			return
		}
		sess := entry.sess
		saveFile("Export PDF", "screenplay.pdf", ".pdf", func(path string) error {
			return export.ScreenplayPDF(path, sess.Title(), sess.Document(), export.PDFOptions{TitlePage: true, Mode: sess.Mode()})
		})
	})
	exportCardItem := fyne.NewMenuItem("Pitch Card PNG…", func() {
		if !requireProject("Export Card") {
			return
		}
		sess := entry.sess
		saveFile("Export Card", "pitch-card.png", ".png", func(path string) error {
			return export.PitchCardPNG(path, sess.Title(), sess.Synopsis())
		})
	})
	completeItem := fyne.NewMenuItem("Complete Project…", func() {
		if !requireProject("Complete Project") || !requireBackend("Complete Project") {
			return
		}
		status.SetText("Analyzing script…")
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout()+5*time.Second)
			defer cancel()
			cert, err := ws.Complete(ctx)
			fyne.Do(func() {
				if err != nil {
					status.SetText("Complete failed")
					dialog.ShowError(err, w)
					return
				}
				status.SetText(fmt.Sprintf("Completed: %d pages", cert.Stats.PageCount))
				msg := formatAnalysis(&cert.Stats) + "\n\nSave the completion certificate?"
				dialog.ShowConfirm("Project complete", msg, func(ok bool) {
					if ok {
						saveFile("Certificate", "certificate.pdf", ".pdf", func(path string) error {
							return export.CertificatePDF(path, *cert)
						})
					}
				}, w)
			})
		}()
	})
	exportMenu := fyne.NewMenu("Export", exportPDFItem, exportCardItem, fyne.NewMenuItemSeparator(), completeItem)

	aboutItem := fyne.NewMenuItem("About Screenwriter", func() {
		exe, _ := os.Executable()
		info := fmt.Sprintf("%s\nVersion: %s\nOS: %s\nArch: %s\nGo: %s\nExecutable: %s",
			appTitle, version.String(), runtime.GOOS, runtime.GOARCH, runtime.Version(), exe)
		dialog.ShowInformation("About", info, w)
	})
	aboutMenu := fyne.NewMenu("About", aboutItem)
	w.SetMainMenu(fyne.NewMainMenu(fileMenu, toolsMenu, exportMenu, aboutMenu))

	var dashboard fyne.CanvasObject
	buildDashboard := func() fyne.CanvasObject {
		title := widget.NewLabel("Projects")
		title.TextStyle = fyne.TextStyle{Bold: true}
		newBtn := widget.NewButton("New Project…", func() { newItem.Action() })
		openBtn := widget.NewButton("Open Project…", func() { openItem.Action() })
		recent := loadRecentProjects(prefs)
		recList := widget.NewList(
			func() int { return len(recent) },
			func() fyne.CanvasObject { return widget.NewLabel("") },
			func(i widget.ListItemID, o fyne.CanvasObject) {
				if i >= 0 && int(i) < len(recent) {
					o.(*widget.Label).SetText(recent[i])
				}
			},
		)
		recList.OnSelected = func(id widget.ListItemID) {
			if id >= 0 && int(id) < len(recent) {
				openDir(recent[id])
			}
			recList.UnselectAll()
		}
		return container.NewBorder(
			container.NewVBox(title, widget.NewSeparator(), container.NewHBox(newBtn, openBtn)),
			nil, nil, nil,
			container.NewBorder(widget.NewLabel("Recent Projects"), nil, nil, nil, recList),
		)
	}
	showDashboard = func() {
		dashboard = buildDashboard()
		root.Objects = []fyne.CanvasObject{dashboard}
		root.Refresh()
	}

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		if s := ws.Session(); s != nil && s.Dirty() {
			dialog.ShowConfirm("Quit", "Discard unsaved changes?", func(ok bool) {
				if ok {
					w.Close()
				}
			}, w)
			return
		}
		w.Close()
	})

	if projectDir != "" {
		openDir(projectDir)
	}
	if ws.Session() == nil {
		showDashboard()
	}
	w.ShowAndRun()
	return nil
}

// showSearchDialog queries the project index and jumps to the chosen line.
func showSearchDialog(w fyne.Window, ws *workspace.Workspace, jump func(lineNo int)) {
	query := widget.NewEntry()
	query.SetPlaceHolder("Search text")
	kindNames := []string{"any"}
	for _, k := range script.Kinds() {
		kindNames = append(kindNames, k.String())
	}
	kindSel := widget.NewSelect(kindNames, nil)
	kindSel.SetSelected("any")
	var hits []storage.SearchResult
	list := widget.NewList(
		func() int { return len(hits) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			h := hits[i]
			o.(*widget.Label).SetText(fmt.Sprintf("%d  %-13s %s", h.LineNo, h.Kind, h.Text))
		},
	)
	var dlg dialog.Dialog
	list.OnSelected = func(id widget.ListItemID) {
		jump(hits[id].LineNo)
		dlg.Hide()
	}
	run := func() {
		q := storage.SearchQuery{Text: query.Text, Limit: 200}
		if k, ok := script.ParseKind(kindSel.Selected); ok {
			q.Kinds = []script.Kind{k}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := ws.Save(ctx); err != nil {
			dialog.ShowError(err, w)
			return
		}
		res, err := storage.Search(ctx, ws.Project().Root, q)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		hits = res
		list.Refresh()
	}
	query.OnSubmitted = func(string) { run() }
	kindSel.OnChanged = func(string) { run() }
	content := container.NewBorder(container.NewVBox(query, kindSel), nil, nil, nil, list)
	dlg = dialog.NewCustom("Search", "Close", content, w)
	dlg.Resize(fyne.NewSize(640, 480))
	dlg.Show()
}

func showText(w fyne.Window, title, text string) {
	body := widget.NewMultiLineEntry()
	body.SetText(text)
	body.Wrapping = fyne.TextWrapWord
	d := dialog.NewCustom(title, "Close", body, w)
	d.Resize(fyne.NewSize(560, 420))
	d.Show()
}

func formatAnalysis(a *backend.ScriptAnalysis) string {
	return fmt.Sprintf("Pages: %d\nLocations: %d\nCharacters: %d\nLanguages: %s\nMarkets: %s",
		a.PageCount, a.LocationCount, a.CharacterCount,
		strings.Join(a.Languages, ", "), strings.Join(a.PotentialMarkets, ", "))
}

// Recent project persistence helpers for the dashboard.
const recentPrefsKey = "recent.projects"
const recentMax = 10

func loadRecentProjects(p fyne.Preferences) []string {
	raw := p.StringWithFallback(recentPrefsKey, "")
	var items []string
	if strings.TrimSpace(raw) != "" {
		_ = json.Unmarshal([]byte(raw), &items)
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(s, storage.ManifestFileName)); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func saveRecentProjects(p fyne.Preferences, items []string) {
	if len(items) > recentMax {
		items = items[:recentMax]
	}
	b, _ := json.Marshal(items)
	p.SetString(recentPrefsKey, string(b))
}

func addRecentProject(p fyne.Preferences, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	abs, _ := filepath.Abs(path)
	rec := loadRecentProjects(p)
	out := make([]string, 0, 1+len(rec))
	out = append(out, abs)
	for _, s := range rec {
		if strings.EqualFold(s, abs) {
			continue
		}
		out = append(out, s)
	}
	saveRecentProjects(p, out)
}
