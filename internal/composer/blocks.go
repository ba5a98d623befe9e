package composer

import "github.com/ShayCichocki/skillflow/pkg/models"

// Block is a literal code fragment used in template mode.
type Block struct {
	// Capability is the capability the block serves.
	Capability string
	Imports    []string
	Code       string
}

// DefaultBlocks are the built-in template-mode fragments keyed by capability.
var DefaultBlocks = map[string]Block{
	"web": {
		Capability: "web",
		Imports:    []string{"fmt", "io", "net/http"},
		Code: `// fetchURL downloads the body at url.
func fetchURL(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}`,
	},
	"api": {
		Capability: "api",
		Imports:    []string{"bytes", "encoding/json", "net/http"},
		Code: `// postJSON sends v as a JSON body to url.
func postJSON(url string, v any) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return http.Post(url, "application/json", bytes.NewReader(body))
}`,
	},
	"file": {
		Capability: "file",
		Imports:    []string{"os", "path/filepath"},
		Code: `// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}`,
	},
	"data": {
		Capability: "data",
		Imports:    []string{"encoding/csv", "os"},
		Code: `// writeCSV writes rows to a CSV file at path.
func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}`,
	},
	models.GeneralCapability: {
		Capability: models.GeneralCapability,
		Code: `// process is the placeholder transformation for each step.
func process(input string) string {
	return input
}`,
	},
}

// BlocksFor picks blocks for the given capabilities in the given order.
// Capabilities without a block are skipped; the general block is used when
// nothing else matched.
func BlocksFor(capabilities []string, table map[string]Block) []Block {
	var out []Block
	seen := make(map[string]bool)
	for _, c := range capabilities {
		b, ok := table[c]
		if !ok || seen[c] || c == models.GeneralCapability {
			continue
		}
		seen[c] = true
		out = append(out, b)
	}
	if len(out) == 0 {
		if b, ok := table[models.GeneralCapability]; ok {
			out = append(out, b)
		}
	}
	return out
}
