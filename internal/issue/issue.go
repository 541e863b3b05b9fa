// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	FileNotFoundId Id = iota + 1
	InputFormatId
	MalformedGraphId
	SpriteNotFoundId
	ModuleNotFoundId
	InvalidModuleNameId
	SelfMergeId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# Project file not found!

spm could not open the .sb3 archive you named.

## Things you can try:
- Check the path for typos; archive names are case sensitive on most systems
- Export the project from the Scratch editor with **File > Save to your computer**
- List what is already merged into a project:
~~~
$ spm list game.sb3
~~~`,
	}

	inputFormatIssue = &Issue{
		id: InputFormatId,
		mdMsg: `
# Not a Scratch 3 project!

The archive could not be read as a Scratch 3 project.

## Common causes:
- The file is not a zip archive (Scratch 2 .sb2 files are not supported)
- The archive has no project.json at its root
- project.json is not valid JSON, has no targets, or has no stage
- The module registry comment was edited by hand and no longer parses

## Things you can try:
- Open the file in the Scratch editor and save it again
- Run with verbose mode for the full error chain:
~~~
$ spm --verbose info game.sb3
~~~`,
		extLinks: []HttpLink{"https://en.scratch-wiki.info/wiki/Scratch_File_Format"},
	}

	malformedGraphIssue = &Issue{
		id: MalformedGraphId,
		mdMsg: `
# Malformed block graph!

The module's blocks reference something that does not exist, so they cannot be
namespaced safely. Nothing was written.

## Common causes:
- A procedure definition without its prototype
- A procedure call or prototype without its mutation
- A block input that points at a block id missing from the sprite

## Things you can try:
- Open the module in the Scratch editor, fix or delete the broken script, and save it again
- Check that the module sprite is the one you meant:
~~~
$ spm add game.sb3 lib.sb3 --module-sprite Library
~~~`,
	}

	spriteNotFoundIssue = &Issue{
		id: SpriteNotFoundId,
		mdMsg: `
# Sprite not found!

The project does not contain the sprite you named.

## Sprite selection order:
1. The --sprite / --module-sprite flag
2. The sprite named in the module's spm.toml
3. The defaults section of your config file
4. The first sprite in the project

## Things you can try:
- List the sprites of a project:
~~~
$ spm info game.sb3
~~~
- Remember that sprite names are case sensitive`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not installed!

The sprite has no blocks or registry entry for the module you asked to remove.

## Things you can try:
- List installed modules:
~~~
$ spm list game.sb3
~~~
- Use the module name, not the archive file name`,
	}

	invalidModuleNameIssue = &Issue{
		id: InvalidModuleNameId,
		mdMsg: `
# Invalid module name!

Module names must start with a letter and contain only letters, digits, ".", "_" and "-".
They must not contain the namespace separator "Ω".

## Things you can try:
- Pass a valid name explicitly:
~~~
$ spm add game.sb3 ./my_lib.sb3 --name mylib
~~~
- Set the name in the module's spm.toml:
~~~toml
[module]
name = "mylib"
version = "1.0.0"
~~~`,
	}

	selfMergeIssue = &Issue{
		id: SelfMergeId,
		mdMsg: `
# A project cannot be merged into itself!

The module archive is the same file as the host project.

## Things you can try:
- Save a copy of the module project under a different name and add that copy`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the spm configuration file.

## Configuration file locations:
- Linux: ~/.config/spm/config.cue
- macOS: ~/Library/Application Support/spm/config.cue
- Windows: %APPDATA%\spm\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ spm config init
~~~

- Check the configuration syntax
- Check SPM_* environment variables and your .env file

## Example configuration:
~~~cue
merge: {
  private_marker: "#"
  hidden_marker: "_"
  reset_positions: true
}

ui: {
  color_scheme: "auto"
  verbose: false
}
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to read the archive or write it back.

## Things you can try:
- Check file and directory permissions
- Write the result elsewhere:
~~~
$ spm add game.sb3 lib.sb3 --output merged.sb3
~~~`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():      fileNotFoundIssue,
		inputFormatIssue.Id():       inputFormatIssue,
		malformedGraphIssue.Id():    malformedGraphIssue,
		spriteNotFoundIssue.Id():    spriteNotFoundIssue,
		moduleNotFoundIssue.Id():    moduleNotFoundIssue,
		invalidModuleNameIssue.Id(): invalidModuleNameIssue,
		selfMergeIssue.Id():         selfMergeIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		permissionDeniedIssue.Id():  permissionDeniedIssue,
	}
)

func Values() []*Issue {
	return slices.Collect(maps.Values(issues))
}

func Get(id Id) *Issue {
	return issues[id]
}
