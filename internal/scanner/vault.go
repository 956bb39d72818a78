package scanner

import "os"

// VaultKind classifies a repository root as a recognized note-taking vault
// or a generic source tree (spec.md §3, Repository.detected vault kind).
type VaultKind string

const (
	VaultObsidian VaultKind = "obsidian"
	VaultLogseq   VaultKind = "logseq"
	VaultDendron  VaultKind = "dendron"
	VaultGeneric  VaultKind = "generic"
)

// DetectVaultKind inspects root for marker directories/files that identify
// a known vault layout. Order matters: the first marker found wins.
func DetectVaultKind(root string) VaultKind {
	if exists(root, ".obsidian") {
		return VaultObsidian
	}
	if exists(root, "logseq") {
		return VaultLogseq
	}
	if exists(root, "dendron.yml") || exists(root, ".dendron.yml") {
		return VaultDendron
	}
	return VaultGeneric
}

func exists(root, name string) bool {
	_, err := os.Stat(root + string(os.PathSeparator) + name)
	return err == nil
}
