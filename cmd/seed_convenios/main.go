// seed_convenios genera un script SQL para cargar empresas y convenios desde la
// exportación CSV del sistema anterior (ISO-8859-1, separador ';').
//
// Columnas: empresa;nit;email;convenio;fecha_fin;estado
// fecha_fin en formato dd/mm/aaaa (vacía = sin fecha). estado: EN_REVISION, APROBADO, VENCIDO, RECHAZADO.
//
// Uso: go run ./cmd/seed_convenios [ruta/convenios.csv]
// Por defecto busca convenios.csv en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/900_seed_convenios.sql
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Convenios-api/internal/domain/entity"
)

// seedNamespace hace que los IDs generados sean estables entre ejecuciones.
var seedNamespace = uuid.MustParse("6f1c2a3e-5b7d-4e8f-9a0b-1c2d3e4f5a6b")

type empresaRow struct {
	id, nombre, nit, email string
}

type convenioRow struct {
	id, empresaID, nombre, estado string
	fechaFin                      *time.Time
}

type seed struct {
	empresas  []empresaRow
	convenios []convenioRow
	skipped   []string
}

func main() {
	csvPath := "convenios.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	s, err := parse(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer CSV: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "900_seed_convenios.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, s); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	for _, msg := range s.skipped {
		fmt.Fprintf(os.Stderr, "omitida: %s\n", msg)
	}
	fmt.Printf("Generado %s: %d empresas, %d convenios, %d filas omitidas\n",
		outPath, len(s.empresas), len(s.convenios), len(s.skipped))
}

// parse lee el CSV ya decodificado a UTF-8. Las filas inválidas se omiten y se reportan.
func parse(r io.Reader) (*seed, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	s := &seed{}
	empresas := map[string]empresaRow{}
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "empresa") {
			continue // cabecera
		}
		if len(rec) < 6 {
			s.skipped = append(s.skipped, fmt.Sprintf("línea %d: se esperaban 6 columnas", line))
			continue
		}
		nombreEmpresa, nit, email := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1]), strings.TrimSpace(rec[2])
		nombreConvenio, fecha, estado := strings.TrimSpace(rec[3]), strings.TrimSpace(rec[4]), strings.ToUpper(strings.TrimSpace(rec[5]))
		if nombreEmpresa == "" || nit == "" || nombreConvenio == "" {
			s.skipped = append(s.skipped, fmt.Sprintf("línea %d: empresa, nit y convenio son requeridos", line))
			continue
		}
		if !validStatus(estado) {
			s.skipped = append(s.skipped, fmt.Sprintf("línea %d: estado %q desconocido", line, estado))
			continue
		}
		var fechaFin *time.Time
		if fecha != "" {
			t, err := time.Parse("02/01/2006", fecha)
			if err != nil {
				s.skipped = append(s.skipped, fmt.Sprintf("línea %d: fecha_fin %q inválida", line, fecha))
				continue
			}
			fechaFin = &t
		}

		emp, ok := empresas[nit]
		if !ok {
			emp = empresaRow{
				id:     uuid.NewSHA1(seedNamespace, []byte("empresa:"+nit)).String(),
				nombre: nombreEmpresa,
				nit:    nit,
				email:  email,
			}
			empresas[nit] = emp
		}
		s.convenios = append(s.convenios, convenioRow{
			id:        uuid.NewSHA1(seedNamespace, []byte("convenio:"+nit+":"+nombreConvenio)).String(),
			empresaID: emp.id,
			nombre:    nombreConvenio,
			estado:    estado,
			fechaFin:  fechaFin,
		})
	}

	for _, e := range empresas {
		s.empresas = append(s.empresas, e)
	}
	sort.Slice(s.empresas, func(i, j int) bool { return s.empresas[i].nit < s.empresas[j].nit })
	return s, nil
}

func writeSQL(w io.Writer, s *seed) error {
	var b strings.Builder
	b.WriteString("-- Empresas y convenios migrados del sistema anterior\n")
	b.WriteString("-- Generado por cmd/seed_convenios\n\n")

	b.WriteString("-- 1. Empresas (habilitadas; el barrido las deshabilita si no tienen convenio aprobado vigente)\n")
	for _, e := range s.empresas {
		fmt.Fprintf(&b, "INSERT INTO empresas (id, nombre, nit, email, habilitada)\nVALUES ('%s', '%s', '%s', %s, TRUE)\n",
			e.id, escapeSQL(e.nombre), escapeSQL(e.nit), nullable(e.email))
		b.WriteString("ON CONFLICT (nit) DO UPDATE SET nombre = EXCLUDED.nombre, email = EXCLUDED.email;\n")
	}

	b.WriteString("\n-- 2. Convenios\n")
	for _, c := range s.convenios {
		fecha := "NULL"
		if c.fechaFin != nil {
			// Fin del día en hora de Colombia.
			fecha = fmt.Sprintf("'%s 23:59:59-05'", c.fechaFin.Format("2006-01-02"))
		}
		fmt.Fprintf(&b, "INSERT INTO convenios (id, empresa_id, nombre, estado, fecha_fin)\nVALUES ('%s', '%s', '%s', '%s', %s)\n",
			c.id, c.empresaID, escapeSQL(c.nombre), c.estado, fecha)
		b.WriteString("ON CONFLICT (id) DO UPDATE SET estado = EXCLUDED.estado, fecha_fin = EXCLUDED.fecha_fin;\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func validStatus(s string) bool {
	switch s {
	case entity.ConvenioStatusEnRevision, entity.ConvenioStatusAprobado,
		entity.ConvenioStatusVencido, entity.ConvenioStatusRechazado:
		return true
	}
	return false
}

func nullable(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + escapeSQL(s) + "'"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
