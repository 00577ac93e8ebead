// Package cmdutil provides shared flags for the dsplugin commands that call
// the plugin in-process.
package cmdutil

import (
	"github.com/spf13/pflag"

	"github.com/agentstation/dsplugin/pkg/backend"
	"github.com/agentstation/dsplugin/pkg/constants"
)

// PluginFlags identify the data source a request is made against.
type PluginFlags struct {
	Datasource string
	OrgID      int64
}

// AddPluginFlags adds the data source flags to fs.
func AddPluginFlags(fs *pflag.FlagSet) *PluginFlags {
	flags := &PluginFlags{}

	fs.StringVarP(&flags.Datasource, "datasource", "d", "",
		"Data source UID the request is made against")
	fs.Int64Var(&flags.OrgID, "org", 1,
		"Organization ID")

	return flags
}

// PluginContext builds the caller context for a plugin request. Without a
// data source UID the context is not bound to an instance.
func (f *PluginFlags) PluginContext() backend.PluginContext {
	pc := backend.PluginContext{
		OrgID:    f.OrgID,
		PluginID: constants.PluginID,
	}
	if f.Datasource != "" {
		pc.DataSourceInstanceSettings = &backend.DataSourceInstanceSettings{
			UID:  f.Datasource,
			Name: f.Datasource,
		}
	}
	return pc
}
