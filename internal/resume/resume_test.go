package resume

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

func strPtr(s string) *string { return &s }

func TestPatchApply_ReplacesOnlyGivenFields(t *testing.T) {
	base := ResumeData{Name: "Ada", Email: "ada@example.com", Skills: "Go"}
	next := Patch{Name: strPtr("Ada Lovelace"), Skills: strPtr("Go, SQL")}.Apply(base)

	assert.Equal(t, "Ada Lovelace", next.Name)
	assert.Equal(t, "ada@example.com", next.Email)
	assert.Equal(t, "Go, SQL", next.Skills)
	assert.Equal(t, "Ada", base.Name, "original value must stay untouched")
}

func TestPatchApply_ProfilePicture(t *testing.T) {
	withPic := Patch{ProfilePicture: strPtr(tinyPNG)}.Apply(Default())
	require.NotNil(t, withPic.ProfilePicture)
	assert.Equal(t, tinyPNG, *withPic.ProfilePicture)

	cleared := Patch{ClearProfilePicture: true}.Apply(withPic)
	assert.Nil(t, cleared.ProfilePicture)
	assert.NotNil(t, withPic.ProfilePicture)
}

func TestPatchIsEmpty(t *testing.T) {
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, Patch{Phone: strPtr("")}.IsEmpty())
	assert.False(t, Patch{ClearProfilePicture: true}.IsEmpty())
}

func TestFields_DeclarationOrderAndOptional(t *testing.T) {
	d := ResumeData{Name: "A"}
	keys := func(fs []Field) []string {
		out := make([]string, 0, len(fs))
		for _, f := range fs {
			out = append(out, f.Key)
		}
		return out
	}
	assert.Equal(t, []string{"name", "email", "phone", "education", "experience", "skills"}, keys(d.Fields()))

	d.ProfilePicture = strPtr(tinyPNG)
	assert.Equal(t, "profilePicture", d.Fields()[6].Key)
}

func TestIsImageDataURI(t *testing.T) {
	assert.True(t, IsImageDataURI(tinyPNG))
	assert.False(t, IsImageDataURI("https://example.com/me.png"))
	assert.False(t, IsImageDataURI("data:image/png;base64,"))
	assert.False(t, IsImageDataURI("data:text/plain;base64,aGVsbG8="))
	assert.False(t, IsImageDataURI("data:image/png;base64,@@@"))
}

func TestCanonicalize_DropsRemotePicture(t *testing.T) {
	d := ResumeData{Name: "A", ProfilePicture: strPtr("https://example.com/me.png")}
	assert.Nil(t, Canonicalize(d).ProfilePicture)
}

func TestCanonicalize_ConvertsHTMLIntoEmptyFields(t *testing.T) {
	html := `<h1>Grace Hopper</h1><p>grace@navy.mil | +1 555 123 4567</p>
<h2>Experience</h2><p>Built the first compiler.</p><p>Rear admiral.</p>
<h2>Education</h2><p>Yale, PhD Mathematics</p>
<h2>Skills</h2><ul><li>COBOL</li><li>Compilers</li></ul>`
	d := ResumeData{Name: "Kept Name", HTMLContent: strPtr(html)}

	out := Canonicalize(d)

	assert.Nil(t, out.HTMLContent)
	assert.Equal(t, "Kept Name", out.Name)
	assert.Equal(t, "grace@navy.mil", out.Email)
	assert.Equal(t, "+1 555 123 4567", out.Phone)
	assert.Equal(t, "Built the first compiler.\nRear admiral.", out.Experience)
	assert.Equal(t, "Yale, PhD Mathematics", out.Education)
	assert.Equal(t, "COBOL, Compilers", out.Skills)
}

func TestCanonicalize_EmptyHTMLIsCleared(t *testing.T) {
	out := Canonicalize(ResumeData{HTMLContent: strPtr("  ")})
	assert.Nil(t, out.HTMLContent)
	assert.Equal(t, Default(), out)
}

func TestFromHTML_MailtoAndPlainText(t *testing.T) {
	out := FromHTML(`<p>Linus</p><p><a href="mailto:linus@example.org?subject=hi">write me</a></p>`)
	assert.Equal(t, "Linus", out.Name)
	assert.Equal(t, "linus@example.org", out.Email)

	plain := FromHTML("Jane Doe\njane@example.com\nSkills:\nGo")
	assert.Equal(t, "Jane Doe", plain.Name)
	assert.Equal(t, "jane@example.com", plain.Email)
}

func TestDecode_MissingFieldsDefaultToEmpty(t *testing.T) {
	d, err := Decode([]byte(`{"name":"Ada"}`))
	require.NoError(t, err)
	assert.Equal(t, ResumeData{Name: "Ada"}, d)
}

func TestDecode_RejectsWrongTypes(t *testing.T) {
	_, err := Decode([]byte(`{"name": 42}`))
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	require.Len(t, se.Errors, 1)
	assert.Equal(t, "name", se.Errors[0].Field)
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`{"name":`))
	assert.Error(t, err)
}
