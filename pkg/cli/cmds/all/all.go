package all

import (
	// all commands
	_ "github.com/robotalks/linebot/pkg/cli/cmds/board"
	_ "github.com/robotalks/linebot/pkg/cli/cmds/decide"
)
