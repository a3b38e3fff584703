/*
Copyright SUSE LLC.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package action

import (
	"context"
	"io/ioutil"
	"path/filepath"

	"github.com/Masterminds/log-go"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
	"sigs.k8s.io/yaml"
)

// WorldFile describes a machine: its arch, what is installed on it, the
// repositories it sees and the local package files at hand.
type WorldFile struct {
	Arch          string          `json:"arch,omitempty"`
	RunningKernel string          `json:"running_kernel,omitempty"`
	Installed     []WorldPackage  `json:"installed,omitempty"`
	Repos         []WorldRepo     `json:"repos,omitempty"`
	Local         []WorldPackage  `json:"local,omitempty"`
	Conditionals  []WorldCondPkgs `json:"conditionals,omitempty"`
}

// WorldPackage is one package of a world file.
type WorldPackage struct {
	Nevra       string   `json:"nevra"`
	Reason      string   `json:"reason,omitempty"`
	InstallOnly string   `json:"installonly,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	Requires    []string `json:"requires,omitempty"`
	Provides    []string `json:"provides,omitempty"`
	Obsoletes   []string `json:"obsoletes,omitempty"`
	Conflicts   []string `json:"conflicts,omitempty"`
	Files       []string `json:"files,omitempty"`
	Size        int64    `json:"size,omitempty"`
	// Path locates a local package file, relative to the world file.
	Path string `json:"path,omitempty"`
}

// WorldRepo is a repository of available packages, listed inline or read
// from a primary_db.
type WorldRepo struct {
	ID        string         `json:"id"`
	PrimaryDB string         `json:"primary_db,omitempty"`
	Packages  []WorldPackage `json:"packages,omitempty"`
}

// WorldCondPkgs lists the group conditional packages pulled in along with
// Required.
type WorldCondPkgs struct {
	Required string   `json:"required"`
	Packages []string `json:"packages"`
}

// World is a loaded world file.
type World struct {
	Arch  string
	Sack  *sack.MemorySack
	RPMDB *sack.MemoryRPMDB
	// Root is the directory local package paths are resolved under.
	Root string
	// Local maps the securely joined path of each local package file to it.
	Local        map[string]*pkg.Pkg
	Conditionals map[string][]*pkg.Pkg
}

// LoadWorld reads and builds the world file at path.
func LoadWorld(ctx context.Context, path string, logger log.Logger) (*World, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading world file %s", path)
	}
	wf := &WorldFile{}
	if err := yaml.UnmarshalStrict(data, wf); err != nil {
		return nil, errors.Wrapf(err, "parsing world file %s", path)
	}
	return BuildWorld(ctx, wf, filepath.Dir(path), logger)
}

// BuildWorld fills a sack and an rpmdb out of wf. Relative primary_db and
// local package paths are resolved under root and may not escape it.
func BuildWorld(ctx context.Context, wf *WorldFile, root string, logger log.Logger) (*World, error) {
	w := &World{
		Arch:         wf.Arch,
		Sack:         sack.New(),
		RPMDB:        sack.NewRPMDB(),
		Root:         root,
		Local:        map[string]*pkg.Pkg{},
		Conditionals: map[string][]*pkg.Pkg{},
	}

	for _, wp := range wf.Installed {
		p, err := wp.toPkg(pkg.InstalledRepo)
		if err != nil {
			return nil, err
		}
		reason := wp.Reason
		if reason == "" {
			reason = sack.ReasonUser
		}
		w.RPMDB.Install(p, reason)
		if wp.InstallOnly != "" {
			w.RPMDB.SetInstallOnlyMarker(p.PkgTup(), wp.InstallOnly)
		}
		if len(wp.Groups) > 0 {
			w.RPMDB.SetGroups(p.PkgTup(), wp.Groups)
		}
	}
	if wf.RunningKernel != "" {
		t, err := pkg.ParseNEVRA(wf.RunningKernel)
		if err != nil {
			return nil, errors.Wrap(err, "running_kernel")
		}
		w.RPMDB.SetRunningKernel(t)
	}

	for _, r := range wf.Repos {
		if r.ID == "" {
			return nil, errors.New("repository without id in world file")
		}
		for _, wp := range r.Packages {
			p, err := wp.toPkg(r.ID)
			if err != nil {
				return nil, err
			}
			w.Sack.Add(p)
		}
		if r.PrimaryDB == "" {
			continue
		}
		dbPath, err := securejoin.SecureJoin(root, r.PrimaryDB)
		if err != nil {
			return nil, errors.Wrapf(err, "locating primary_db of %s", r.ID)
		}
		n, err := sack.LoadPrimaryDB(ctx, dbPath, r.ID, w.Sack)
		if err != nil {
			return nil, err
		}
		logger.Debugf("loaded %d packages of %s from %s", n, r.ID, dbPath)
	}

	for _, wp := range wf.Local {
		if wp.Path == "" {
			return nil, errors.Errorf("local package %s has no path", wp.Nevra)
		}
		p, err := wp.toPkg("@commandline")
		if err != nil {
			return nil, err
		}
		full, err := securejoin.SecureJoin(root, wp.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "locating local package %s", wp.Path)
		}
		p.Origin = pkg.OriginLocal
		p.Location = full
		w.Local[full] = p
	}

	for _, c := range wf.Conditionals {
		for _, nevra := range c.Packages {
			t, err := pkg.ParseNEVRA(nevra)
			if err != nil {
				return nil, errors.Wrapf(err, "conditional of %s", c.Required)
			}
			found := w.Sack.SearchNevra(t)
			if len(found) == 0 {
				return nil, errors.Errorf("conditional package %s of %s is not in any repository", nevra, c.Required)
			}
			w.Conditionals[c.Required] = append(w.Conditionals[c.Required], found[0])
		}
	}

	w.Sack.DebugPrint(logger)
	return w, nil
}

func (wp WorldPackage) toPkg(repo string) (*pkg.Pkg, error) {
	t, err := pkg.ParseNEVRA(wp.Nevra)
	if err != nil {
		return nil, err
	}
	p := pkg.NewPkgFromTup(t, repo)
	p.Size = wp.Size
	p.Files = wp.Files
	for _, rels := range []struct {
		in  []string
		out *[]*pkg.PkgRel
	}{
		{wp.Requires, &p.Requires},
		{wp.Provides, &p.Provides},
		{wp.Obsoletes, &p.Obsoletes},
		{wp.Conflicts, &p.Conflicts},
	} {
		for _, s := range rels.in {
			r, err := pkg.ParseRel(s)
			if err != nil {
				return nil, errors.Wrapf(err, "package %s", wp.Nevra)
			}
			*rels.out = append(*rels.out, r)
		}
	}
	return p, nil
}
