// Package policy loads branch policies from a YAML file. It serves branches the policy
// store does not know about, and development setups without a database.
package policy

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Beka01247/kwaaka-table/internal/domain"
	"github.com/Beka01247/kwaaka-table/internal/repo"
	"gopkg.in/yaml.v3"
)

type file struct {
	Default  *domain.BranchPolicy  `yaml:"default"`
	Branches []domain.BranchPolicy `yaml:"branches"`
}

// FileSource serves policies read once from disk. Branches without an entry get the
// default policy when one is configured.
type FileSource struct {
	branches map[string]domain.BranchPolicy
	fallback *domain.BranchPolicy
}

func Load(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*FileSource, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	src := &FileSource{
		branches: make(map[string]domain.BranchPolicy, len(f.Branches)),
		fallback: f.Default,
	}
	for _, p := range f.Branches {
		if p.BranchID == "" {
			return nil, errors.New("policy file: branch entry without branch_id")
		}
		src.branches[p.BranchID] = p
	}
	return src, nil
}

func (s *FileSource) Get(ctx context.Context, branchID string) (*domain.BranchPolicy, error) {
	if p, ok := s.branches[branchID]; ok {
		return &p, nil
	}
	if s.fallback != nil {
		p := *s.fallback
		p.BranchID = branchID
		return &p, nil
	}
	return nil, fmt.Errorf("branch policy: %w", domain.ErrNotFound)
}

// Chain asks each source in order and returns the first policy found.
type Chain []repo.PolicyRepository

func (c Chain) Get(ctx context.Context, branchID string) (*domain.BranchPolicy, error) {
	for _, src := range c {
		p, err := src.Get(ctx, branchID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("branch policy: %w", domain.ErrNotFound)
}
