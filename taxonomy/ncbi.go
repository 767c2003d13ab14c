package taxonomy

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gmaffy/gd-reports/utils"
)

const maxLineageDepth = 256

type node struct {
	parent int
	rank   string
}

// NCBI resolves names against an NCBI taxdump (nodes.dmp and names.dmp).
// Only scientific names are indexed; when a name is shared by several taxa
// the lowest taxid wins.
type NCBI struct {
	nodes  map[int]node
	names  map[int]string
	byName map[string]int
}

// LoadNCBI reads nodes.dmp and names.dmp from taxdumpDir. Gzipped copies
// (nodes.dmp.gz, names.dmp.gz) are used when the plain files are absent.
func LoadNCBI(taxdumpDir string) (*NCBI, error) {
	nodesPath, err := dumpFile(taxdumpDir, "nodes.dmp")
	if err != nil {
		return nil, err
	}
	namesPath, err := dumpFile(taxdumpDir, "names.dmp")
	if err != nil {
		return nil, err
	}

	ncbi := &NCBI{
		nodes:  make(map[int]node),
		names:  make(map[int]string),
		byName: make(map[string]int),
	}

	err = scanDump(nodesPath, func(fields []string) error {
		if len(fields) < 3 {
			return nil
		}
		taxid, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("bad taxid %q", fields[0])
		}
		parent, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("bad parent taxid %q", fields[1])
		}
		ncbi.nodes[taxid] = node{parent: parent, rank: fields[2]}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("nodes.dmp: %w", err)
	}

	err = scanDump(namesPath, func(fields []string) error {
		if len(fields) < 4 || fields[3] != "scientific name" {
			return nil
		}
		taxid, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("bad taxid %q", fields[0])
		}
		name := fields[1]
		ncbi.names[taxid] = name
		if have, ok := ncbi.byName[name]; !ok || taxid < have {
			ncbi.byName[name] = taxid
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("names.dmp: %w", err)
	}
	if len(ncbi.nodes) == 0 {
		return nil, fmt.Errorf("taxdump %s has no nodes", taxdumpDir)
	}
	return ncbi, nil
}

// TaxID returns the taxid of a scientific name.
func (n *NCBI) TaxID(name string) (int, bool) {
	taxid, ok := n.byName[name]
	return taxid, ok
}

func (n *NCBI) Lineage(name string) ([]Taxon, error) {
	taxid, ok := n.byName[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrTaxonNotFound)
	}

	var reversed []Taxon
	for id := taxid; ; {
		nd, ok := n.nodes[id]
		if !ok {
			return nil, fmt.Errorf("%q: taxid %d has no node: %w", name, id, ErrTaxonNotFound)
		}
		reversed = append(reversed, Taxon{TaxID: id, Rank: nd.rank, Name: n.names[id]})
		if nd.parent == id {
			break
		}
		if len(reversed) > maxLineageDepth {
			return nil, fmt.Errorf("%q: lineage deeper than %d, the taxdump has a cycle", name, maxLineageDepth)
		}
		id = nd.parent
	}

	lineage := make([]Taxon, len(reversed))
	for i, t := range reversed {
		lineage[len(reversed)-1-i] = t
	}
	return lineage, nil
}

func dumpFile(dir, name string) (string, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if _, err := os.Stat(path + ".gz"); err == nil {
		return path + ".gz", nil
	}
	return "", fmt.Errorf("taxdump %s: %s not found", dir, name)
}

// scanDump calls fn with the fields of every line of a .dmp file. Fields are
// separated by "\t|\t" and lines end in "\t|".
func scanDump(path string, fn func(fields []string) error) error {
	reader, err := utils.OpenInput(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(strings.TrimRight(scanner.Text(), "\r"), "\t|")
		if line == "" {
			continue
		}
		if err := fn(strings.Split(line, "\t|\t")); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}
