package vfs

import (
	"reflect"
	"testing"
)

func testFlagSet() *CommandFlagSet {
	return &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"long": {
				Name:    "long",
				Short:   "l",
				Type:    "bool",
				Default: false,
			},
			"depth": {
				Name:  "depth",
				Short: "d",
				Type:  "int",
			},
			"format": {
				Name: "format",
				Type: "string",
			},
		},
	}
}

func TestCommandParser(t *testing.T) {
	cases := map[string]struct {
		raw       []string
		wantArgs  []string
		wantFlags map[string]any
		wantErr   bool
	}{
		"positional only": {
			raw:       []string{"/etc", "/var"},
			wantArgs:  []string{"/etc", "/var"},
			wantFlags: map[string]any{"long": false},
		},
		"long bool flag": {
			raw:       []string{"--long", "/etc"},
			wantArgs:  []string{"/etc"},
			wantFlags: map[string]any{"long": true},
		},
		"short bool flag": {
			raw:       []string{"-l"},
			wantFlags: map[string]any{"long": true},
		},
		"value with equals": {
			raw:       []string{"--format=json"},
			wantFlags: map[string]any{"long": false, "format": "json"},
		},
		"value as next arg": {
			raw:       []string{"--depth", "3"},
			wantFlags: map[string]any{"long": false, "depth": int64(3)},
		},
		"short value attached": {
			raw:       []string{"-d2"},
			wantFlags: map[string]any{"long": false, "depth": int64(2)},
		},
		"double dash terminator": {
			raw:       []string{"--", "--long"},
			wantArgs:  []string{"--long"},
			wantFlags: map[string]any{"long": false},
		},
		"unknown long flag": {
			raw:     []string{"--frobnicate"},
			wantErr: true,
		},
		"unknown short flag": {
			raw:     []string{"-x"},
			wantErr: true,
		},
		"missing value": {
			raw:     []string{"--depth"},
			wantErr: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			parser := &CommandParser{flagSet: testFlagSet()}
			args, err := parser.Parse(tc.raw)

			if tc.wantErr {
				if err == nil {
					t.Fatal("expected parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}

			if !reflect.DeepEqual(args.Args, tc.wantArgs) {
				t.Errorf("args = %v, want %v", args.Args, tc.wantArgs)
			}
			if !reflect.DeepEqual(args.Flags, tc.wantFlags) {
				t.Errorf("flags = %v, want %v", args.Flags, tc.wantFlags)
			}
		})
	}
}

func TestCommandParser_RequiredFlag(t *testing.T) {
	parser := &CommandParser{flagSet: &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"target": {Name: "target", Type: "string", Required: true},
		},
	}}

	if _, err := parser.Parse(nil); err == nil {
		t.Fatal("expected error for missing required flag")
	}

	args, err := parser.Parse([]string{"--target", "/mnt"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if args.Flags["target"] != "/mnt" {
		t.Errorf("target = %v", args.Flags["target"])
	}
}
