// Command import-pages bulk-imports a directory of .md files as wiki pages
// for a single package.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/modvault/wikidraft/internal/db"
	"github.com/modvault/wikidraft/internal/model"
	"github.com/modvault/wikidraft/internal/repository"
	"github.com/modvault/wikidraft/internal/util"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
)

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	pkgRef := flag.String("package", "", "Target package as namespace/name")
	ownerID := flag.String("owner-id", "", "Owner user ID for the pages")
	dbPath := flag.String("db", "./wikidraft.db", "Path to the SQLite database")
	flag.Parse()

	if *path == "" || *pkgRef == "" {
		fmt.Fprintln(os.Stderr, errStyle.Render("Both --path and --package flags are required"))
		os.Exit(1)
	}

	pkg, ok := model.ParsePackageRef(*pkgRef)
	if !ok {
		fmt.Fprintln(os.Stderr, errStyle.Render("Invalid --package, expected namespace/name"))
		os.Exit(1)
	}

	logger := zerolog.New(os.Stderr).Level(zerolog.WarnLevel)
	db.SetLogger(logger)
	repository.SetLogger(logger)

	database := db.NewSQLite(*dbPath)
	if err := database.InitDB(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("Failed to initialize database: %v", err)))
		os.Exit(1)
	}
	defer database.Close()

	repo := repository.NewDBPageRepository(database)

	files, err := os.ReadDir(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render(fmt.Sprintf("Error reading directory %s: %v", *path, err)))
		os.Exit(1)
	}

	imported := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}

		if err := importFile(*path, file.Name(), repo, pkg, model.UserID(*ownerID)); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", errStyle.Render("skipped"), pathStyle.Render(file.Name()), err)
			continue
		}
		fmt.Printf("%s %s\n", okStyle.Render("imported"), pathStyle.Render(file.Name()))
		imported++
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Done: %d page(s) imported for %s", imported, pkg)))
}

func importFile(dirPath, name string, repo repository.PageRepository, pkg model.PackageRef, owner model.UserID) error {
	content, err := os.ReadFile(filepath.Join(dirPath, name))
	if err != nil {
		return err
	}

	page := repo.NewPage(pkg)
	page.Markdown = content
	page.Owner = owner

	if fm, err := util.GetFrontMatter(content); err == nil && fm.Title != "" {
		page.Title = fm.Title
	} else {
		page.Title = strings.TrimSuffix(name, ".md")
	}

	return repo.SavePage(page)
}
