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

package sack

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // primary_db driver
	"github.com/pkg/errors"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
)

const sqlSelectPackages = `SELECT
 pkgKey
 , name
 , arch
 , epoch
 , version
 , release
 , size_package
 , location_href
FROM packages`

var depTables = []string{"requires", "provides", "conflicts", "obsoletes"}

// LoadPrimaryDB reads every package of a repository's primary_db SQLite
// database into s, tagging them with repoid. It returns the number of
// packages added.
func LoadPrimaryDB(ctx context.Context, path, repoid string, s PackageSack) (int, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return 0, errors.Wrapf(err, "opening primary_db %s", path)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, sqlSelectPackages)
	if err != nil {
		return 0, errors.Wrapf(err, "reading packages from %s", path)
	}
	byKey := map[int64]*pkg.Pkg{}
	order := []int64{}
	for rows.Next() {
		var (
			key                  int64
			name, arch, ver, rel string
			epoch, location      sql.NullString
			size                 sql.NullInt64
		)
		if err := rows.Scan(&key, &name, &arch, &epoch, &ver, &rel, &size, &location); err != nil {
			rows.Close()
			return 0, errors.Wrap(err, "scanning packages")
		}
		p := pkg.NewPkg(name, arch, epoch.String, ver, rel, repoid)
		p.Size = size.Int64
		p.Location = location.String
		byKey[key] = p
		order = append(order, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, errors.Wrap(err, "reading packages")
	}

	for _, table := range depTables {
		if err := loadDeps(ctx, db, table, byKey); err != nil {
			return 0, err
		}
	}
	if err := loadFiles(ctx, db, byKey); err != nil {
		return 0, err
	}

	for _, key := range order {
		s.Add(byKey[key])
	}
	return len(order), nil
}

func loadDeps(ctx context.Context, db *sql.DB, table string, byKey map[int64]*pkg.Pkg) error {
	q := fmt.Sprintf("SELECT pkgKey, name, flags, epoch, version, release FROM %s", table)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return errors.Wrapf(err, "reading %s", table)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key                        int64
			name                       string
			flags, epoch, version, rel sql.NullString
		)
		if err := rows.Scan(&key, &name, &flags, &epoch, &version, &rel); err != nil {
			return errors.Wrapf(err, "scanning %s", table)
		}
		p, ok := byKey[key]
		if !ok {
			continue
		}
		sense, err := pkg.ParseSense(flags.String)
		if err != nil {
			return errors.Wrapf(err, "%s of %s", table, p)
		}
		r := pkg.NewPkgRel(name, sense, pkg.EVR{Epoch: epoch.String, Version: version.String, Release: rel.String})
		switch table {
		case "requires":
			p.Requires = append(p.Requires, r)
		case "provides":
			if r.Name != p.Name {
				p.Provides = append(p.Provides, r)
			}
		case "conflicts":
			p.Conflicts = append(p.Conflicts, r)
		case "obsoletes":
			p.Obsoletes = append(p.Obsoletes, r)
		}
	}
	return rows.Err()
}

func loadFiles(ctx context.Context, db *sql.DB, byKey map[int64]*pkg.Pkg) error {
	rows, err := db.QueryContext(ctx, "SELECT pkgKey, name FROM files")
	if err != nil {
		return errors.Wrap(err, "reading files")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key  int64
			name string
		)
		if err := rows.Scan(&key, &name); err != nil {
			return errors.Wrap(err, "scanning files")
		}
		if p, ok := byKey[key]; ok {
			p.Files = append(p.Files, name)
		}
	}
	return rows.Err()
}
