package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/skillflow/internal/config"
	"github.com/ShayCichocki/skillflow/internal/intent"
	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/internal/state"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a skillflow project",
	Long: `Initialize a directory for use with skillflow.

This command:
  - Creates the skills and flows directories
  - Writes a .skillflow.yaml with default settings
  - Creates the run history database
  - Registers any components already in the skills directory
  - Adds skillflow state to .gitignore

Examples:
  skillflow init              # Initialize current directory
  skillflow init ./myproject  # Initialize specific directory
  skillflow init --force      # Overwrite an existing .skillflow.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing .skillflow.yaml")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}
	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing skillflow in %s...\n\n", absPath)
	cfg := config.Default()

	for _, dir := range []string{cfg.SkillsDirectory, cfg.OutputDirectory} {
		if err := os.MkdirAll(filepath.Join(absPath, dir), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	printStatus("✓", "Created skills and flows directories", color.FgGreen)

	projectConfig := filepath.Join(absPath, config.ProjectConfigName)
	if fileExists(projectConfig) && !initForce {
		printStatus("⚠", config.ProjectConfigName+" exists (use --force to overwrite)", color.FgYellow)
	} else {
		if err := config.Save(cfg, projectConfig); err != nil {
			return err
		}
		printStatus("✓", "Created "+config.ProjectConfigName, color.FgGreen)
	}

	db, err := state.Open(filepath.Join(absPath, cfg.State.Path), cfg.State.Driver)
	if err != nil {
		return err
	}
	db.Close()
	printStatus("✓", "Created run history database", color.FgGreen)

	reg := registry.Open(filepath.Join(absPath, cfg.RegistryPath))
	report, err := reg.ScanDirectory(filepath.Join(absPath, cfg.SkillsDirectory), intent.NewParser())
	if err != nil {
		return err
	}
	printStatus("✓", fmt.Sprintf("Registered %d existing component(s)", len(report.Registered)), color.FgGreen)

	if updated, err := updateGitignore(absPath); err != nil {
		printStatus("⚠", "Could not update .gitignore: "+err.Error(), color.FgYellow)
	} else if updated {
		printStatus("✓", "Updated .gitignore", color.FgGreen)
	}

	if key, _ := config.APIKey(cfg); key == "" {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (only needed for security.gate: llm)", color.FgYellow)
	}

	fmt.Printf("\n%s skillflow initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  skillflow scan                 # register components in ./skills")
	fmt.Println(`  skillflow process "<request>"  # compose a flow`)
	return nil
}

// gitignoreEntries are the local state files that should not be committed.
var gitignoreEntries = []string{".skillflow/", "*.lock", "*.corrupt-*"}

// updateGitignore appends missing entries. It reports whether the file changed.
func updateGitignore(dir string) (bool, error) {
	path := filepath.Join(dir, ".gitignore")
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}
	var missing []string
	for _, entry := range gitignoreEntries {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	var b strings.Builder
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		b.WriteString("\n")
	}
	b.WriteString("# skillflow\n")
	for _, entry := range missing {
		b.WriteString(entry + "\n")
	}
	if _, err := f.WriteString(b.String()); err != nil {
		return false, err
	}
	return true, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("  %s %s\n", c.Sprint(symbol), message)
}
