package conf

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-json-experiment/json"
	"go.uber.org/zap"

	"github.com/zeptools/gw-docgen/documents"
)

const CompanyFile = ".company.json"

// LoadCompany reads a company profile file. A missing file gives the default profile
func LoadCompany(path string) (documents.Company, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return documents.DefaultCompany(), nil
	}
	if err != nil {
		return documents.Company{}, err
	}
	var company documents.Company
	if err = json.Unmarshal(data, &company); err != nil {
		return documents.Company{}, fmt.Errorf("%s: %w", CompanyFile, err)
	}
	company.Normalize()
	if company.Name == "" {
		return documents.Company{}, fmt.Errorf("%s: name is required", CompanyFile)
	}
	return company, nil
}

// PrepareCompany loads config/.company.json
func (c *Core) PrepareCompany() error {
	return c.ReloadCompany()
}

// ReloadCompany swaps in the profile from disk. On error the current profile stays
func (c *Core) ReloadCompany() error {
	company, err := LoadCompany(c.ConfigPath(CompanyFile))
	if err != nil {
		return err
	}
	c.Company.Store(&company)
	c.Logger.Info("company profile loaded", zap.String("name", company.Name))
	return nil
}

// GetCompany returns the current profile. Safe for concurrent use
func (c *Core) GetCompany() documents.Company {
	if p := c.Company.Load(); p != nil {
		return *p
	}
	return documents.DefaultCompany()
}

// PrepareCompanyWatcher reloads the company profile when its file changes
func (c *Core) PrepareCompanyWatcher() error {
	w, err := NewCompanyWatcher(c.RootCtx, c.ConfigPath(CompanyFile), c.ReloadCompany, c.Logger)
	if err != nil {
		return err
	}
	c.AddService(w)
	return nil
}
