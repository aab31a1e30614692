// Taxonomy annotation for alignment hits.
//
// Two sources feed this: the species mnemonic embedded in db|accession|name
// style headers, and the NCBI TaxID table (uniref_tax.m8) emitted by the
// search tool next to its a3m output.

package msa

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/yumyai/msaprep/logger"
	"go.uber.org/zap"
)

// Headers look like sp|P0C2L1|A3X1_LOXLA: a db code (sp/tr for UniProt,
// cb for entries rebuilt from the ColabFold db), an accession with an
// optional isoform suffix, and MNEMONIC_SPECIES. The species code is the
// capture group; the trailing boundary keeps a segment longer than 5
// characters from matching as a truncated code.
var species_regex = regexp.MustCompile(
	`^(?:sp|tr|cb)\|[A-Za-z0-9]{6,10}(?:-\d+)?\|[A-Za-z0-9]{1,10}_([A-Za-z0-9]{1,5})(?:[^A-Za-z0-9]|$)`)

// SpeciesID extracts the species code from a hit header, or "" when the
// header does not follow the convention.
func SpeciesID(header string) string {
	m := species_regex.FindStringSubmatch(header)
	if m == nil {
		return ""
	}
	return m[1]
}

// AnnotateSpecies fills Hit.SpeciesID for every hit. A non-matching
// header is not an error; the hit keeps an empty species id and the miss
// is only logged. Returns the number of hits that got a species id.
func AnnotateSpecies(hits []Hit) int {
	matched := 0
	for i := range hits {
		hits[i].SpeciesID = SpeciesID(hits[i].Header)
		if hits[i].SpeciesID == "" {
			logger.Debug("no species code in hit header", zap.String("header", hits[i].Name()))
			continue
		}
		matched++
	}
	return matched
}

// ReadTaxidMap parses the tab-separated uniref_tax.m8 table written by
// the search tool, mapping hit name to NCBI TaxID.
func ReadTaxidMap(fpath string) (map[string]string, error) {

	f, err := os.Open(fpath)
	if err != nil {
		return nil, fmt.Errorf("read taxid table: %w", err)
	}
	defer f.Close()

	taxids := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 3 {
			continue
		}
		taxids[fields[1]] = fields[2]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read taxid table: %w", err)
	}

	return taxids, nil
}

// AnnotateTaxids rewrites UniRef hit headers to carry their NCBI TaxID
// (UniRef100_{acc}_{taxid}/), so the species code survives the pairing
// split. Only hits in the UniRef section are touched.
func AnnotateTaxids(aln *Alignment, taxids map[string]string) {

	for i := 1; i < aln.UniRefEnd && i < len(aln.Hits); i++ {
		hit := &aln.Hits[i]
		name := hit.Name()
		taxid, ok := taxids[name]
		if !ok {
			continue
		}

		if strings.HasPrefix(name, "UniRef100_") {
			hit.Header = strings.Replace(hit.Header, name, fmt.Sprintf("%s_%s/", name, taxid), 1)
		} else {
			hit.Header = strings.Replace(hit.Header, name, fmt.Sprintf("UniRef100_%s_%s/", name, taxid), 1)
		}
	}
}
