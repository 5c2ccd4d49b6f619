// Package mechconfig loads mechanism description files: an INI-style
// format with one [joint <name>] section per joint and a single [input]
// section naming the driven joints and their values (spec.md §3,
// ambient config concern). Other sections are parsed but not read by
// the mechanism loader.
package mechconfig

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Config is a parsed mechanism file: an ordered set of sections with
// per-section access tracking, adapted from the teacher's
// pkg/config.Config (INI parser, [include glob] support).
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string

	accessedSections map[string]struct{}
}

func newConfig() *Config {
	return &Config{
		sections:         make(map[string]*Section),
		accessedSections: make(map[string]struct{}),
	}
}

// Load reads a mechanism file, following [include glob] directives
// relative to the including file's directory.
func Load(path string) (*Config, error) {
	c := newConfig()
	visited := make(map[string]bool)
	if err := c.parseFile(path, visited); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses a mechanism file body given directly as a string,
// with no include support (there is no base directory to resolve
// includes against).
func LoadString(data string) (*Config, error) {
	c := newConfig()
	if err := c.parseLines(strings.NewReader(data), "<string>"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parseFile(path string, visited map[string]bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("mechconfig: invalid path %s: %w", path, err)
	}
	if visited[abs] {
		return fmt.Errorf("mechconfig: recursive include: %s", path)
	}
	visited[abs] = true
	defer func() { visited[abs] = false }()

	f, err := os.Open(abs)
	if err != nil {
		return fmt.Errorf("mechconfig: unable to open %s: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(abs)
	return c.parseWithIncludes(f, path, dir, visited)
}

func (c *Config) parseLines(r io.Reader, path string) error {
	return c.parseWithIncludes(r, path, "", nil)
}

func (c *Config) parseWithIncludes(r io.Reader, path, dir string, visited map[string]bool) error {
	var currentSection string
	var currentOptions map[string]string

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
			if line == "" {
				continue
			}
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return fmt.Errorf("mechconfig: empty section header at line %d in %s", lineNum, path)
			}
			if strings.HasPrefix(header, "include ") {
				if dir == "" {
					return fmt.Errorf("mechconfig: include not supported in %s", path)
				}
				spec := strings.TrimSpace(header[len("include "):])
				if spec == "" {
					return fmt.Errorf("mechconfig: empty include at line %d in %s", lineNum, path)
				}
				glob := filepath.Join(dir, spec)
				matches, err := filepath.Glob(glob)
				if err != nil {
					return fmt.Errorf("mechconfig: invalid include pattern %q: %w", spec, err)
				}
				sort.Strings(matches)
				if len(matches) == 0 && !strings.ContainsAny(glob, "*?[") {
					return fmt.Errorf("mechconfig: include file does not exist: %s", glob)
				}
				for _, m := range matches {
					if err := c.parseFile(m, visited); err != nil {
						return err
					}
				}
				currentSection = ""
				currentOptions = nil
				continue
			}
			currentSection = header
			currentOptions = make(map[string]string)
			continue
		}

		if currentSection == "" {
			continue
		}

		kv := strings.SplitN(line, ":", 2)
		if len(kv) != 2 {
			kv = strings.SplitN(line, "=", 2)
		}
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		if key == "" {
			continue
		}
		currentOptions[key] = value
	}
	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}
	return scanner.Err()
}

func (c *Config) addSection(name string, options map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sections[name]; ok {
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[name] = newSection(name, options)
	c.order = append(c.order, name)
}

// GetSection returns a named section, or a MalformedJoint error if it
// is missing.
func (c *Config) GetSection(name string) (*Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sec, ok := c.sections[name]
	if !ok {
		return nil, errMissingSection(name)
	}
	c.accessedSections[name] = struct{}{}
	return sec, nil
}

// GetSectionOptional returns a named section, or nil if it is absent.
func (c *Config) GetSectionOptional(name string) *Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	sec, ok := c.sections[name]
	if ok {
		c.accessedSections[name] = struct{}{}
	}
	return sec
}

// GetPrefixSections returns every section whose header starts with
// prefix, in file order — the mechanism loader uses this to enumerate
// all "joint <name>" sections.
func (c *Config) GetPrefixSections(prefix string) []*Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []*Section
	for _, name := range c.order {
		if strings.HasPrefix(name, prefix) {
			c.accessedSections[name] = struct{}{}
			result = append(result, c.sections[name])
		}
	}
	return result
}

// GetSectionNames returns every section header in file order.
func (c *Config) GetSectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]string, len(c.order))
	copy(result, c.order)
	return result
}

// GetUnusedSections returns sections that were never read, for a
// caller that wants to warn about a mistyped section header.
func (c *Config) GetUnusedSections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []string
	for _, name := range c.order {
		if _, ok := c.accessedSections[name]; !ok {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}
