package commands

type Command struct {
	Flag        byte
	InputSize   uint
	Run         func(Controller, []byte) error
	Description string
}

// Controller is used to inspect and nudge a running valve controller between cycles
type Controller interface {
	Debug()
	Verbose()
	Rehome()
	Timing()

	// I/O
	ReadByte() (byte, error)
	Buffered() int
}

var (
	DebugCommand = &Command{
		Flag:      'D',
		InputSize: 0,
		Run: func(c Controller, b []byte) error {
			c.Debug()
			return nil
		},
		Description: "Print the current state and fresh knob and battery readings.",
	}
	VerboseCommand = &Command{
		Flag:      'V',
		InputSize: 0,
		Run: func(c Controller, b []byte) error {
			c.Verbose()
			return nil
		},
		Description: "Toggle verbose output, which prints every settle poll.",
	}
	RehomeCommand = &Command{
		Flag:      'R',
		InputSize: 0,
		Run: func(c Controller, b []byte) error {
			c.Rehome()
			return nil
		},
		Description: "Fully close and reopen to the current position on the next cycle.",
	}
	TimingCommand = &Command{
		Flag:      'T',
		InputSize: 0,
		Run: func(c Controller, b []byte) error {
			c.Timing()
			return nil
		},
		Description: "Print the full travel time at the present battery voltage.",
	}
	HelpCommand = &Command{
		Flag:        helpFlag,
		InputSize:   0,
		Description: helpDescription,
		Run: func(c Controller, b []byte) error {
			println(Help())
			return nil
		},
	}
)

const (
	helpFlag        = 'H'
	helpDescription = "Show all available commands and their descriptions."
)

var commands = []*Command{
	DebugCommand,
	VerboseCommand,
	RehomeCommand,
	TimingCommand,
}

// Help lists the commands, one per line. It can't refer to HelpCommand, which calls it
func Help() string {
	out := "Available Commands:"
	for _, cmd := range commands {
		out += "\n" + helpLine(cmd.Flag, cmd.Description)
	}
	return out + "\n" + helpLine(helpFlag, helpDescription)
}

func helpLine(flag byte, description string) string {
	flagStr := ""
	if flag >= 32 && flag <= 126 {
		flagStr = string(flag)
	} else {
		flagStr = "0x" + string("0123456789ABCDEF"[(flag>>4)&0xF]) + string("0123456789ABCDEF"[flag&0xF])
	}
	return flagStr + ": " + description
}

var cmdMap = buildCommandMap()

func buildCommandMap() map[byte]*Command {
	m := map[byte]*Command{
		HelpCommand.Flag: HelpCommand,
	}
	for _, cmd := range commands {
		m[cmd.Flag] = cmd
	}
	return m
}

// Poll runs at most one command if input is waiting and returns right away otherwise. It is called between
// control cycles, so nothing here may block on an empty serial buffer. Unknown bytes are dropped
func Poll(c Controller) bool {
	if c.Buffered() == 0 {
		return false
	}

	cmdIn, err := c.ReadByte()
	if err != nil {
		return false
	}

	cmd, ok := cmdMap[cmdIn]
	if !ok {
		return false
	}

	in := make([]byte, cmd.InputSize)
	for i := 0; i < int(cmd.InputSize); {
		b, err := c.ReadByte()
		if err != nil {
			continue
		}

		in[i] = b
		i++
	}

	err = cmd.Run(c, in)
	if err != nil {
		println("error:", err.Error())
	}
	return true
}
