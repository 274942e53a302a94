package asset

import (
	"context"

	"github.com/wricardo/mcp-training/editorbridge/bridge/registry"
	"github.com/wricardo/mcp-training/editorbridge/domains/kit"
	"github.com/wricardo/mcp-training/editorbridge/host"
)

func (m *Module) dataTableDescriptors() []registry.Descriptor {
	h := m.host
	table := kit.Required("asset_path", registry.TypeString, "DataTable asset path")
	rowName := kit.Required("row_name", registry.TypeString, "Row name")

	return []registry.Descriptor{
		{
			Name:        "asset.create_data_table",
			Description: "Create an empty DataTable for a row struct",
			Params: []registry.Param{
				kit.Required("asset_path", registry.TypeString, "Path of the new DataTable"),
				kit.Required("row_struct", registry.TypeString, "Row struct, e.g. FItemData"),
			},
			Handler: kit.OnHost(h, m.createDataTable),
		},
		{
			Name:        "asset.get_data_table",
			Description: "Read every row of a DataTable",
			Params:      []registry.Param{table},
			Handler:     kit.OnHost(h, m.getDataTable),
		},
		{
			Name:        "asset.set_data_row",
			Description: "Add a DataTable row or merge columns into an existing one",
			Params: []registry.Param{
				table,
				rowName,
				kit.Required("data", registry.TypeObject, "Column values"),
			},
			Handler: kit.OnHost(h, m.setDataRow),
		},
		{
			Name:        "asset.delete_data_row",
			Description: "Remove a DataTable row",
			Params:      []registry.Param{table, rowName},
			Handler:     kit.OnHost(h, m.deleteDataRow),
		},
	}
}

func (m *Module) createDataTable(ctx context.Context, args registry.Args) (any, error) {
	path, err := kit.AssetPath(args, "asset_path")
	if err != nil {
		return nil, err
	}
	a := host.NewDataTable(path, args.String("row_struct"))
	if err := m.host.Project.Add(a); err != nil {
		return nil, err
	}
	m.host.Log.Add(host.CategoryAsset, host.VerbosityLog, "Created DataTable %s (%s)", a.Path, a.RowStruct())
	return tableView(a), nil
}

func (m *Module) getDataTable(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.host.Project.GetClass(args.String("asset_path"), host.ClassDataTable)
	if err != nil {
		return nil, err
	}
	return tableView(a), nil
}

func (m *Module) setDataRow(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.host.Project.GetClass(args.String("asset_path"), host.ClassDataTable)
	if err != nil {
		return nil, err
	}
	name := args.String("row_name")
	if name == "" {
		return nil, &registry.ArgumentError{Field: "row_name", Reason: "must not be empty"}
	}
	added, err := a.SetRow(name, args.Object("data"))
	if err != nil {
		return nil, err
	}
	row, _ := a.Row(name)
	return map[string]any{
		"asset":     a.Path,
		"row_name":  name,
		"data":      row,
		"added":     added,
		"row_count": len(a.RowNames()),
	}, nil
}

func (m *Module) deleteDataRow(ctx context.Context, args registry.Args) (any, error) {
	a, err := m.host.Project.GetClass(args.String("asset_path"), host.ClassDataTable)
	if err != nil {
		return nil, err
	}
	if err := a.DeleteRow(args.String("row_name")); err != nil {
		return nil, err
	}
	return map[string]any{
		"asset":     a.Path,
		"deleted":   args.String("row_name"),
		"row_count": len(a.RowNames()),
	}, nil
}

func tableView(a *host.Asset) map[string]any {
	names := a.RowNames()
	rows := make([]map[string]any, 0, len(names))
	for _, name := range names {
		data, _ := a.Row(name)
		rows = append(rows, map[string]any{"row_name": name, "data": data})
	}
	return map[string]any{
		"asset":      a.Path,
		"class":      a.Class,
		"row_struct": a.RowStruct(),
		"row_count":  len(rows),
		"rows":       rows,
	}
}
