package sqlinline

const QInsertPromptPreset = `--sql a9cc56ac-7792-4af4-8796-bf911f624b92
insert into prompt_presets (id, slug, title, body, mode, created_by, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::text, $5::uuid, now(), now())
returning id, slug, title, body, mode, created_at, updated_at;
`

const QSelectPromptPresets = `--sql 05965666-be8e-494d-8762-20787ba9c189
select id, slug, title, body, mode, created_at, updated_at
from prompt_presets
order by created_at desc
limit $1::int;
`

const QUpdatePromptPreset = `--sql 822fb202-d780-455b-80e9-3d62e1dea4a3
update prompt_presets
set title = $2::text,
    body = $3::text,
    mode = $4::text,
    updated_at = now()
where id = $1::uuid
returning id, slug, title, body, mode, created_at, updated_at;
`

const QDeletePromptPreset = `--sql d903e0ce-88d0-4909-bf58-b1a08924099a
delete from prompt_presets
where id = $1::uuid;
`
