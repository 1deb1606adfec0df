package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"socialfeed/app/config"

	"github.com/dgraph-io/badger/v4"
	"github.com/dustin/go-humanize"
)

// Overridable in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	now              = time.Now
)

// HandleCommand runs a database maintenance subcommand against cfg.DBPath
// and returns an exit code.
func HandleCommand(cfg *config.Config, args []string) int {
	args, yes := stripYes(args)
	if len(args) < 1 {
		printDbHelp()
		return 1
	}

	cmd := args[0]
	switch cmd {
	case "clean":
		return clean(cfg.DBPath, yes)
	case "init":
		return initDb(cfg.DBPath)
	case "backup":
		return backup(cfg.DBPath, cfg.BackupDir)
	case "restore":
		if len(args) < 2 {
			fmt.Fprintln(stdout, "Error: backup file path required for restore")
			return 1
		}
		return restore(cfg.DBPath, args[1], yes)
	case "help":
		printDbHelp()
		return 0
	default:
		fmt.Fprintf(stdout, "Unknown db command: %s\n\n", cmd)
		printDbHelp()
		return 1
	}
}

func stripYes(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	yes := false
	for _, a := range args {
		if a == "--yes" || a == "-y" {
			yes = true
			continue
		}
		out = append(out, a)
	}
	return out, yes
}

// printDbHelp prints help for db subcommands.
func printDbHelp() {
	helpText := `Usage: socialfeed db <command> [--yes]

Commands:
  init                            Initialize a new empty database
  clean                           Delete the database
  backup                          Create a backup of the database in BACKUP_DIR
  restore <file>                  Restore database from backup
  help                            Display this help message

--yes skips confirmation prompts.
`
	fmt.Fprintln(stdout, helpText)
}

func confirm(prompt string, yes bool) bool {
	if yes {
		return true
	}
	fmt.Fprint(stdout, prompt+" [y/N] ")
	var response string
	fmt.Fscanln(stdin, &response)
	return response == "y" || response == "Y"
}

func openDB(path string) (*badger.DB, error) {
	return badger.Open(badger.DefaultOptions(path).WithLogger(nil))
}

// clean removes the database.
func clean(dbPath string, yes bool) int {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(stdout, "Database is already clean (does not exist)")
		return 0
	}

	if !confirm("Are you sure you want to clean the database? This cannot be undone.", yes) {
		fmt.Fprintln(stdout, "Operation cancelled")
		return 1
	}

	if err := os.RemoveAll(dbPath); err != nil {
		fmt.Fprintf(stdout, "Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Database cleaned successfully")
	return 0
}

// initDb initializes a new empty database.
func initDb(dbPath string) int {
	if _, err := os.Stat(dbPath); err == nil {
		fmt.Fprintln(stdout, "Database already exists. Use 'clean' first if you want to reinitialize.")
		return 1
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Fprintf(stdout, "Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := openDB(dbPath)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to initialize database: %v\n", err)
		return 1
	}
	defer db.Close()

	fmt.Fprintln(stdout, "Database initialized successfully")
	return 0
}

// backup writes a full badger backup into backupDir.
func backup(dbPath, backupDir string) int {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(stdout, "No database exists to backup")
		return 1
	}

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		fmt.Fprintf(stdout, "Failed to create backup directory: %v\n", err)
		return 1
	}

	db, err := openDB(dbPath)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	backupFile := filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", now().Unix()))
	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		fmt.Fprintf(stdout, "Failed to backup database: %v\n", err)
		return 1
	}

	size := "unknown size"
	if fi, err := f.Stat(); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}
	fmt.Fprintf(stdout, "Database backed up successfully to %s (%s)\n", backupFile, size)
	return 0
}

// restore replaces the database with the contents of a backup.
func restore(dbPath, backupFile string, yes bool) int {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Fprintf(stdout, "Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stdout, "Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Fprintf(stdout, "Backup file is empty: %s\n", backupFile)
		return 1
	}

	if _, err := os.Stat(dbPath); err == nil {
		if !confirm("Existing database found. Do you want to replace it?", yes) {
			fmt.Fprintln(stdout, "Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			fmt.Fprintf(stdout, "Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Fprintf(stdout, "Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := openDB(dbPath)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Fprintf(stdout, "Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return db.Load(f, 4)
	}()
	if err != nil {
		fmt.Fprintf(stdout, "Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Database restored successfully (%s)\n", humanize.Bytes(uint64(fi.Size())))
	return 0
}
