package main

import (
	"reflect"
	"testing"
	"time"

	"github.com/image-harvest/internal/app"
	"github.com/spf13/cobra"
)

func fileJob() *app.Job {
	job := app.NewJob()
	job.Name = "parsons"
	job.Subject = "Micah Parsons"
	job.Variants = []string{"", "cowboys"}
	job.Target = 12
	job.Policy = "pad"
	job.PadSize = 512
	job.QueryDelay = 2 * time.Second
	return job
}

func TestJobFlagsApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   []string
		modify func(j *app.Job)
	}{
		{
			name:   "no flags keep the file",
			modify: func(j *app.Job) {},
		},
		{
			name:   "changed flags override",
			args:   []string{"--target", "5", "--policy", "crop", "--min-size", "400x300"},
			modify: func(j *app.Job) { j.Target = 5; j.Policy = "crop"; j.MinSize = app.Size{Width: 400, Height: 300} },
		},
		{
			name:   "flag set to its default still overrides",
			args:   []string{"--target", "30", "--pad-size", "0"},
			modify: func(j *app.Job) { j.Target = 30; j.PadSize = 0 },
		},
		{
			name:   "repeatable flags replace the list",
			args:   []string{"--variant", "dallas", "--variant", "", "--delay", "0s"},
			modify: func(j *app.Job) { j.Variants = []string{"dallas", ""}; j.QueryDelay = 0 },
		},
		{
			name:   "bool and string flags",
			args:   []string{"--aspect-gate", "--prefix", "mp", "--subject", "M. Parsons"},
			modify: func(j *app.Job) { j.AspectGate = true; j.Prefix = "mp"; j.Subject = "M. Parsons" },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			cmd := &cobra.Command{Use: "run"}
			flags := bindJobFlags(cmd)
			if err := cmd.ParseFlags(test.args); err != nil {
				t.Fatalf("parse flags: %v", err)
			}

			got := fileJob()
			flags.apply(cmd, got)

			want := fileJob()
			test.modify(want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("expected\n%+v\ngot\n%+v", want, got)
			}
		})
	}
}
